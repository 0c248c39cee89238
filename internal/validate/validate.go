// Package validate holds the lead-contact validation rules: email syntax
// with optional deliverability probing, and region-aware phone numbers
// normalized to E.164.
package validate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

var (
	// ErrInvalidEmail marks a syntactically unacceptable email address.
	ErrInvalidEmail = errors.New("validate: invalid email address")
	// ErrUndeliverableEmail marks an email whose domain accepts no mail.
	ErrUndeliverableEmail = errors.New("validate: email domain not deliverable")
	// ErrInvalidPhone marks an unparseable or out-of-plan phone number.
	ErrInvalidPhone = errors.New("validate: invalid phone number")
)

var emailRules = validator.New()

// EmailOptions controls the email check. Deliverability probing adds a DNS
// round trip, so it defaults off.
type EmailOptions struct {
	CheckDeliverability bool
	LookupTimeout       time.Duration
}

// Email validates raw as an email address and returns its normal form
// (trimmed, lower-cased). With CheckDeliverability set, the domain must
// publish at least one MX record.
func Email(ctx context.Context, raw string, opts EmailOptions) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := emailRules.Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	if opts.CheckDeliverability {
		if err := probeMX(ctx, email, opts.LookupTimeout); err != nil {
			return "", err
		}
	}
	return email, nil
}

func probeMX(ctx context.Context, email string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	domain := email[strings.LastIndex(email, "@")+1:]
	records, err := net.DefaultResolver.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		return fmt.Errorf("%w: %s", ErrUndeliverableEmail, domain)
	}
	return nil
}

// Phone validates raw against the given default region (ISO 3166-1 alpha-2,
// e.g. "IN") and returns the number in canonical E.164 form.
func Phone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", fmt.Errorf("%w: parse %q: %v", ErrInvalidPhone, raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
