package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dice/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatWait renders a remaining cooldown at hour/minute granularity, rounding up.
func FormatWait(d time.Duration) string {
	if d <= 0 {
		return "no time"
	}
	if d < time.Minute {
		return "less than a minute"
	}

	minutes := int((d + time.Minute - 1) / time.Minute)
	hours := minutes / 60
	minutes %= 60

	switch {
	case hours == 0:
		return pluralize(minutes, "minute")
	case minutes == 0:
		return pluralize(hours, "hour")
	default:
		return fmt.Sprintf("%s and %s", pluralize(hours, "hour"), pluralize(minutes, "minute"))
	}
}

// FormatAmount groups thousands: 12345 -> "12,345".
func FormatAmount(n int64) string {
	return printer.Sprintf("%d", n)
}

func FormatMultiplier(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64) + "x"
}

func formatModifierNote(multiplier float64, applied []models.AppliedModifier) string {
	if len(applied) == 0 {
		return "You can double your payout by voting for the bot each day and quadruple it by voting on the weekend."
	}

	reasons := make([]string, 0, len(applied))
	for _, modifier := range applied {
		reason := modifier.Description
		if reason == "" {
			reason = modifier.ID
		}
		reasons = append(reasons, reason)
	}

	return fmt.Sprintf("You got %s your payout: %s.", FormatMultiplier(multiplier), strings.Join(reasons, ", "))
}
