// Package report renders a leaderboard as Telegram Markdown.
package report

import (
	"strconv"
	"strings"

	"github.com/GlebRadaev/courierstats/internal/domain"
)

type Mode int

const (
	// ModeQuery answers an on-demand /stats request.
	ModeQuery Mode = iota
	// ModeReport is the scheduled weekly post.
	ModeReport
)

func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "query":
		return ModeQuery, true
	case "report":
		return ModeReport, true
	}
	return ModeQuery, false
}

const (
	emptyQuery  = "No completed deliveries this week."
	emptyReport = "No deliveries were made this week 😢"
)

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

type Formatter struct {
	Unit string
}

// DisplayName renders a courier as @handle, or user_<id> when no handle is known.
func DisplayName(e domain.LeaderboardEntry) string {
	if e.Handle.Valid && e.Handle.String != "" {
		return "@" + e.Handle.String
	}
	return "user_" + e.CourierID
}

func (f Formatter) Format(entries []domain.LeaderboardEntry, mode Mode) string {
	if len(entries) == 0 {
		if mode == ModeReport {
			return emptyReport
		}
		return emptyQuery
	}

	var b strings.Builder
	top := entries[0]
	if mode == ModeReport {
		b.WriteString("📆 *Weekly courier report*\n\n")
		b.WriteString("🏆 *Top courier of the week:*\n")
		b.WriteString(f.name(top) + " — *" + f.amount(top.Total) + "!*\n")
		if len(entries) > 1 {
			b.WriteString("\n📋 Others:\n")
		}
		for _, e := range entries[1:] {
			b.WriteString("• " + f.name(e) + " — *" + f.amount(e.Total) + "*\n")
		}
		if len(entries) == 1 {
			b.WriteString("\n_Lone hero of the week! Respect!_")
		}
		return b.String()
	}

	b.WriteString("📊 *Weekly stats:*\n\n")
	b.WriteString("🥇 *Top courier of the week:* " + f.name(top) + " — *" + f.amount(top.Total) + "!*\n\n")
	for _, e := range entries[1:] {
		b.WriteString(f.name(e) + " — *" + f.amount(e.Total) + "*\n")
	}
	if len(entries) == 1 {
		b.WriteString("_Riding solo this week, and still on plan! 💪_")
	}
	return b.String()
}

func (f Formatter) name(e domain.LeaderboardEntry) string {
	return markdownEscaper.Replace(DisplayName(e))
}

func (f Formatter) amount(v int64) string {
	s := strconv.FormatInt(v, 10)
	if f.Unit == "" {
		return s
	}
	return s + " " + f.Unit
}
