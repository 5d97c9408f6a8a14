package entity

type AuditAction int16

const (
	// AuditActionUnknown is mean action is not known / not set.
	AuditActionUnknown AuditAction = 0

	// AuditActionRegistered mean a device completed registration.
	AuditActionRegistered AuditAction = 1

	// AuditActionVerified mean a code was checked and accepted.
	AuditActionVerified AuditAction = 2

	// AuditActionVerificationRejected mean a code was checked and refused,
	// including checks against missing or inactive devices.
	AuditActionVerificationRejected AuditAction = 3

	// AuditActionRateLimited mean a verification was refused before the code
	// was checked because the device exceeded its attempt budget.
	AuditActionRateLimited AuditAction = 4

	// AuditActionDeactivated mean a device was permanently disabled.
	AuditActionDeactivated AuditAction = 5
)

func (a AuditAction) String() string {
	switch a {
	case AuditActionRegistered:
		return "REGISTERED"
	case AuditActionVerified:
		return "VERIFIED"
	case AuditActionVerificationRejected:
		return "VERIFICATION_REJECTED"
	case AuditActionRateLimited:
		return "RATE_LIMITED"
	case AuditActionDeactivated:
		return "DEACTIVATED"
	default:
		return "UNKNOWN"
	}
}

func AuditActionFromString(str string) AuditAction {
	switch str {
	case "REGISTERED":
		return AuditActionRegistered
	case "VERIFIED":
		return AuditActionVerified
	case "VERIFICATION_REJECTED":
		return AuditActionVerificationRejected
	case "RATE_LIMITED":
		return AuditActionRateLimited
	case "DEACTIVATED":
		return AuditActionDeactivated
	default:
		return AuditActionUnknown
	}
}

func (a AuditAction) IsUnknown() bool {
	switch a {
	case AuditActionRegistered, AuditActionVerified, AuditActionVerificationRejected,
		AuditActionRateLimited, AuditActionDeactivated:
		return false
	default:
		return true
	}
}

// ParseSafeAuditActions keeps only recognized, de-duplicated actions.
func ParseSafeAuditActions(raws []string) []AuditAction {
	out := make([]AuditAction, 0)
	seen := map[AuditAction]struct{}{}

	for _, v := range raws {
		a := AuditActionFromString(v)
		if a.IsUnknown() {
			continue
		}

		if _, ok := seen[a]; ok {
			continue
		}

		seen[a] = struct{}{}
		out = append(out, a)
	}

	return out
}

func ToStringSlice(acts []AuditAction) []string {
	out := make([]string, len(acts))
	for i, a := range acts {
		out[i] = a.String()
	}
	return out
}
