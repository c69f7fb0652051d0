package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RenderFileInfo prints the file about to be sent.
func RenderFileInfo(name string, size int64, mimeType string) {
	tbl := newTable(
		[]string{"Name", "Size", "Type"},
		[][]string{{truncateString(name, 50), FormatSize(size), truncateString(mimeType, 20)}},
	)
	fmt.Println(tbl.Render())
}

// TransferSummary holds the closing stats of a transfer.
type TransferSummary struct {
	Status   string
	Name     string
	Size     int64
	Duration time.Duration
}

// RenderTransferSummary prints the closing stats table.
func RenderTransferSummary(summary TransferSummary) {
	speed := "-"
	if seconds := summary.Duration.Seconds(); seconds > 0 {
		speed = FormatSpeed(float64(summary.Size) / seconds)
	}
	tbl := newTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Status", summary.Status},
			{"File", truncateString(summary.Name, 40)},
			{"Size", FormatSize(summary.Size)},
			{"Duration", FormatDuration(summary.Duration)},
			{"Avg Speed", speed},
		},
	)
	fmt.Println(tbl.Render())
}

// RenderRoomInfo prints the room id and share link box.
func RenderRoomInfo(roomID, roomLink string) {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Success).
		Padding(1, 2)

	content := fmt.Sprintf("%s Room Created!\n\n%s Room ID:    %s\n%s Room Link:  %s",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(roomID),
		IconWeb, MutedStyle.Render(roomLink),
	)

	fmt.Println(boxStyle.Render(content))
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})
}
