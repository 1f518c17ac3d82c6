package domain

// Profile is the server-reported balance and power state of an account.
type Profile struct {
	Balance       float64 `json:"HIVERA"`
	Power         float64 `json:"POWER"`
	PowerCapacity float64 `json:"POWER_CAPACITY"`
}

// PowerPercentage returns Power as a percentage of PowerCapacity.
func (p Profile) PowerPercentage() float64 {
	if p.PowerCapacity == 0 {
		return 0
	}
	return p.Power / p.PowerCapacity * 100
}
