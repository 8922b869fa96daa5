package flow

import (
	"encoding/json"
	"strings"

	"github.com/m3rciful/onboardbot/core/telegram/format"
)

// BirthdayAction tags the birthday form submission.
const BirthdayAction = "birthday_submitted"

type birthdayPayload struct {
	Action   string `json:"action"`
	Birthday string `json:"birthday"`
}

// ParseBirthday extracts the date from a birthday form payload and normalizes
// it to YYYY-MM-DD.
func ParseBirthday(data string) (string, bool) {
	var p birthdayPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &p); err != nil {
		return "", false
	}
	if p.Action != BirthdayAction {
		return "", false
	}
	return format.NormalizeDate(p.Birthday)
}

// NormalizePhone adds the leading "+" some clients omit.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}
