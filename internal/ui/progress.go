package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
)

// TransferBar renders the progress of the single in-flight transfer.
type TransferBar struct {
	progress  progress.Model
	label     string
	current   int64
	total     int64
	startTime time.Time
	started   bool
	mu        sync.RWMutex
}

func NewTransferBar(label string, total int64) *TransferBar {
	p := progress.New(
		progress.WithGradient("#38BDF8", "#0EA5E9"),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)
	return &TransferBar{
		progress: p,
		label:    truncateString(label, 30),
		total:    total,
	}
}

// Update records the running byte total. Timing starts at the first
// byte, not at bar creation, so the speed readout excludes the
// handshake.
func (b *TransferBar) Update(current int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started && current > 0 {
		b.started = true
		b.startTime = time.Now()
	}
	b.current = current
}

func (b *TransferBar) View() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var percent float64
	if b.total > 0 {
		percent = float64(b.current) / float64(b.total)
	}

	var speed float64
	if b.started {
		if elapsed := time.Since(b.startTime).Seconds(); elapsed > 0 {
			speed = float64(b.current) / elapsed
		}
	}

	return fmt.Sprintf("%s %s %5.1f%% %s %s",
		b.label,
		b.progress.ViewAs(percent),
		percent*100,
		MutedStyle.Render(FormatSpeed(speed)),
		MutedStyle.Render(fmt.Sprintf("(%s/%s)", FormatSize(b.current), FormatSize(b.total))),
	)
}

// RunLoop redraws the bar until done closes, then prints the final
// state. Call from its own goroutine.
func (b *TransferBar) RunLoop(done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	firstPrint := true
	draw := func() {
		if !firstPrint {
			fmt.Print("\r\033[2K")
		}
		firstPrint = false
		fmt.Print(b.View())
	}

	for {
		select {
		case <-done:
			draw()
			fmt.Println()
			return
		case <-ticker.C:
			draw()
		}
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// FormatSize renders a byte count for humans.
func FormatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSpeed renders a transfer rate for humans.
func FormatSpeed(bytesPerSecond float64) string {
	const (
		kb = 1024.0
		mb = kb * 1024.0
		gb = mb * 1024.0
	)
	switch {
	case bytesPerSecond >= gb:
		return fmt.Sprintf("%.2f GB/s", bytesPerSecond/gb)
	case bytesPerSecond >= mb:
		return fmt.Sprintf("%.2f MB/s", bytesPerSecond/mb)
	case bytesPerSecond >= kb:
		return fmt.Sprintf("%.2f KB/s", bytesPerSecond/kb)
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSecond)
	}
}

// FormatDuration renders an elapsed time for the summary table.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 60 {
		return fmt.Sprintf("%.2f seconds", seconds)
	}
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%dm%ds", mins, secs)
}
