package license

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

type Plan string

const (
	PlanMonthly    Plan = "monthly"
	PlanYearly     Plan = "yearly"
	PlanEnterprise Plan = "enterprise"
)

// ParsePlan maps a Stripe price lookup key to a known plan.
func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case PlanMonthly, PlanYearly, PlanEnterprise:
		return Plan(s), nil
	}
	return "", fmt.Errorf("unknown plan %q", s)
}

func (p Plan) DevicesAllowed() int {
	switch p {
	case PlanMonthly:
		return 1
	case PlanYearly:
		return 3
	case PlanEnterprise:
		return 10
	}
	return 0
}

// License binds a minted key to a payment-provider customer. CustomerID is
// unique per record, so webhook redeliveries upsert instead of duplicating.
// The fingerprint may be empty until a device first validates the key.
type License struct {
	ID             uuid.UUID `db:"id"`
	LicenseKey     string    `db:"license_key"`
	CustomerID     string    `db:"customer_id"`
	Plan           Plan      `db:"plan"`
	DevicesAllowed int       `db:"devices_allowed"`
	Fingerprint    string    `db:"fingerprint"`
	Status         Status    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
