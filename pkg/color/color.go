// Package color renders CLI output with stable per-user colors and a color
// per lifecycle status.
package color

import (
	"hash/fnv"
	"os"

	"github.com/fatih/color"
)

var userPalette = []color.Attribute{
	color.FgHiRed,
	color.FgHiGreen,
	color.FgHiYellow,
	color.FgHiBlue,
	color.FgHiMagenta,
	color.FgHiCyan,
	color.FgRed,
	color.FgGreen,
	color.FgYellow,
	color.FgBlue,
	color.FgMagenta,
	color.FgCyan,
}

var statusColors = map[string]*color.Color{
	"pending":     color.New(color.FgYellow),
	"accepted":    color.New(color.FgCyan),
	"in-progress": color.New(color.FgBlue),
	"revision":    color.New(color.FgMagenta),
	"completed":   color.New(color.FgGreen),
	"verified":    color.New(color.FgHiGreen, color.Bold),
	"declined":    color.New(color.FgRed),
	"active":      color.New(color.FgGreen),
	"inactive":    color.New(color.Faint),
}

// Configure follows NO_COLOR and FORCE_COLOR on top of fatih/color's own
// terminal detection.
func Configure() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
		return
	}
	if os.Getenv("FORCE_COLOR") != "" {
		color.NoColor = false
	}
}

// User returns name in the color assigned to it.
func User(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	attr := userPalette[int(h.Sum32()%uint32(len(userPalette)))]
	return color.New(attr).Sprint(name)
}

// Status returns status in its lifecycle color. Unknown statuses are
// returned unchanged.
func Status(status string) string {
	c, ok := statusColors[status]
	if !ok {
		return status
	}
	return c.Sprint(status)
}

func Faint(s string) string {
	return color.New(color.Faint).Sprint(s)
}

func Bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}
