package mcpserver

import "strings"

const redacted = "[REDACTED]"

// sensitiveKeys are argument keys whose values never leave the process
// through the audit log. Keys are compared lower-cased with "_" and "-"
// removed, so card_number and cardNumber both match.
var sensitiveKeys = map[string]struct{}{
	"cardnumber":   {},
	"expirydate":   {},
	"securitycode": {},
	"cvv":          {},
	"cvc":          {},
	"holdername":   {},
	"email":        {},
	"emailaddress": {},
	"phone":        {},
	"phones":       {},
	"documents":    {},
	"dateofbirth":  {},
}

func sensitiveKey(k string) bool {
	k = strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(k))
	_, ok := sensitiveKeys[k]
	return ok
}

// redactArgs returns a copy of args with sensitive values replaced. The
// input is not modified.
func redactArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out, _ := redactValue(args).(map[string]any)
	return out
}

func redactValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			if sensitiveKey(k) {
				out[k] = redacted
				continue
			}
			out[k] = redactValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = redactValue(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = redactValue(val)
		}
		return out
	default:
		return v
	}
}
