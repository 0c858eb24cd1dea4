package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

const businessInfoKey = "business_info"

// ErrInvalidBusinessInfo is returned when business details fail validation.
var ErrInvalidBusinessInfo = errors.New("settings: invalid business info")

// BusinessInfo is the seller block shown on every bill.
type BusinessInfo struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone" validate:"omitempty,numeric,min=6,max=15"`
	Email   string `json:"email" validate:"omitempty,email"`
	GSTIN   string `json:"gstin" validate:"omitempty,len=15,alphanum"`
}

var businessValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the business details.
func (b BusinessInfo) Validate() error {
	if err := businessValidator.Struct(b); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%s failed %s: %w", strings.ToLower(fieldErrs[0].Field()), fieldErrs[0].Tag(), ErrInvalidBusinessInfo)
		}
		return err
	}
	return nil
}

// LoadBusinessInfo reads the saved business details. The zero value is
// returned when nothing has been saved yet.
func LoadBusinessInfo(ctx context.Context, store Store) (BusinessInfo, error) {
	var info BusinessInfo
	raw, ok, err := store.Get(ctx, businessInfoKey)
	if err != nil || !ok {
		return info, err
	}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return BusinessInfo{}, fmt.Errorf("decode business info: %w", err)
	}
	return info, nil
}

// SaveBusinessInfo validates and stores the business details.
func SaveBusinessInfo(ctx context.Context, store Store, info BusinessInfo) error {
	info.Name = strings.TrimSpace(info.Name)
	info.GSTIN = strings.ToUpper(strings.TrimSpace(info.GSTIN))
	if err := info.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return store.Set(ctx, businessInfoKey, string(data))
}
