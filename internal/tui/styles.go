package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/models"
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusStyles = map[models.Status]lipgloss.Style{
		models.StatusHere:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusTardy: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusNot:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	cellStyle  = lipgloss.NewStyle().Width(10).Padding(0, 1)
	heatStyles = map[attendance.Heat]lipgloss.Style{
		attendance.HeatBusy:   cellStyle.Background(lipgloss.Color("22")),
		attendance.HeatNormal: cellStyle.Background(lipgloss.Color("58")),
		attendance.HeatSlow:   cellStyle.Background(lipgloss.Color("52")),
		attendance.HeatNone:   cellStyle.Foreground(lipgloss.Color("240")),
	}
)
