package enums

import "fmt"

// RewardType distinguishes rewards that discount a sale from rewards that
// are display-only (redeemed at the counter, outside settlement).
type RewardType string

const (
	RewardTypeDiscount    RewardType = "discount"
	RewardTypeMerchandise RewardType = "merchandise"
)

var validRewardTypes = []RewardType{
	RewardTypeDiscount,
	RewardTypeMerchandise,
}

// String implements fmt.Stringer.
func (r RewardType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RewardType.
func (r RewardType) IsValid() bool {
	for _, candidate := range validRewardTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRewardType converts raw input into a RewardType.
func ParseRewardType(value string) (RewardType, error) {
	for _, candidate := range validRewardTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reward type %q", value)
}
