package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cjeanneret/RoboGo/internal/hw/robot"
	"github.com/cjeanneret/RoboGo/internal/logic/mission"
)

// Display renders the mission on a terminal. It implements mission.Display.
type Display struct {
	out       io.Writer
	threshold int

	title   lipgloss.Style
	menuKey lipgloss.Style
	label   lipgloss.Style
	help    lipgloss.Style
	state   lipgloss.Style
	clear   lipgloss.Style
	blocked lipgloss.Style
	message lipgloss.Style
}

// NewDisplay writes to out. Readings below threshold are highlighted.
func NewDisplay(out io.Writer, threshold int) *Display {
	r := lipgloss.NewRenderer(out)
	return &Display{
		out:       out,
		threshold: threshold,
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E5E7EB")).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#6B7280")).
			Padding(0, 2),
		menuKey: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#60A5FA")),
		label:   r.NewStyle().Foreground(lipgloss.Color("#D1D5DB")),
		help:    r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		state:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA")),
		clear:   r.NewStyle().Foreground(lipgloss.Color("#34D399")),
		blocked: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F87171")),
		message: r.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
	}
}

// print writes s with CRLF line endings; raw mode does not translate "\n".
func (d *Display) print(s string) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	fmt.Fprint(d.out, strings.ReplaceAll(s, "\n", "\r\n")+"\r\n")
}

func (d *Display) Menu(items []mission.MenuItem) {
	var b strings.Builder
	b.WriteString(d.title.Render("RoboGo"))
	b.WriteString("\n")
	for _, it := range items {
		fmt.Fprintf(&b, "  %s  %s\n", d.menuKey.Render(string(it.Key)), d.label.Render(it.Label))
	}
	b.WriteString(d.help.Render(fmt.Sprintf("%s %s • %s %s",
		Keys.Stop.Help().Key, Keys.Stop.Help().Desc,
		Keys.Interrupt.Help().Key, Keys.Interrupt.Help().Desc)))
	b.WriteString("\n")
	b.WriteString(d.label.Render("Choose an option:"))
	d.print(b.String())
}

func (d *Display) Status(t mission.Telemetry) {
	st := t.Status
	line := []string{d.state.Render(t.State)}
	if t.Steps > 0 {
		line = append(line, fmt.Sprintf("step %d/%d", t.Step+1, t.Steps))
	}
	if t.Move != "" {
		line = append(line, t.Move)
	}
	line = append(line,
		fmt.Sprintf("enc %d/%d", st.LeftEncoder, st.RightEncoder),
		"prox "+d.sensor(st, robot.SensorLeft)+"/"+d.sensor(st, robot.SensorCenter)+"/"+d.sensor(st, robot.SensorRight),
		fmt.Sprintf("bat %d%%", st.Battery),
	)
	d.print(strings.Join(line, "  "))
}

func (d *Display) sensor(st robot.Status, s robot.Sensor) string {
	if st.Faulted(s) {
		return d.blocked.Render("ERR")
	}
	v := fmt.Sprint(st.Proximity(s))
	if st.Blocked(s, d.threshold) {
		return d.blocked.Render(v)
	}
	return d.clear.Render(v)
}

func (d *Display) Message(msg string) {
	d.print(d.message.Render(msg))
}
