package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/mixtli/fetchr/internal/utils"
)

type jobOutput struct {
	ID        int
	Name      string
	Status    string // pending, active, success, error
	Message   string
	Current   int64
	Total     int64
	Err       error
	StartTime time.Time
}

// Manager renders one status line per registered job, redrawn on a ticker.
type Manager struct {
	mu          sync.RWMutex
	outputs     []*jobOutput
	doneCh      chan struct{}
	displayWg   sync.WaitGroup
	displayTick time.Duration
	lastLines   int
}

func NewManager() *Manager {
	return &Manager{
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) Register(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := len(m.outputs)
	m.outputs = append(m.outputs, &jobOutput{
		ID:        id,
		Name:      name,
		Status:    "pending",
		StartTime: time.Now(),
	})
	return id
}

func (m *Manager) SetStatus(id int, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id >= 0 && id < len(m.outputs) {
		m.outputs[id].Status = status
	}
}

func (m *Manager) SetMessage(id int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id >= 0 && id < len(m.outputs) {
		m.outputs[id].Message = message
	}
}

func (m *Manager) SetProgress(id int, current, total int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id >= 0 && id < len(m.outputs) {
		m.outputs[id].Current = current
		m.outputs[id].Total = total
		m.outputs[id].Status = "active"
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id >= 0 && id < len(m.outputs) {
		m.outputs[id].Err = err
		m.outputs[id].Status = "error"
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id >= 0 && id < len(m.outputs) {
		m.outputs[id].Status = "success"
		m.outputs[id].Message = message
	}
}

func (m *Manager) HasErrors() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.outputs {
		if o.Err != nil {
			return true
		}
	}
	return false
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-m.doneCh:
				m.render()
				return
			case <-ticker.C:
				m.render()
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
	m.printErrors()
}

func (m *Manager) render() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastLines > 0 {
		fmt.Printf("\033[%dA", m.lastLines)
	}
	width := getTerminalWidth()
	for _, o := range m.outputs {
		fmt.Print("\033[K")
		fmt.Println(trimToWidth(m.renderLine(o), width))
	}
	m.lastLines = len(m.outputs)
}

func (m *Manager) renderLine(o *jobOutput) string {
	switch o.Status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"]+" "+o.Name) + " " + debugStyle.Render(o.Message)
	case "error":
		return errorStyle.Render(StyleSymbols["fail"] + " " + o.Name)
	case "active":
		elapsed := time.Since(o.StartTime).Seconds()
		stats := fmt.Sprintf("%s / %s %s", utils.FormatBytes(uint64(o.Current)), utils.FormatBytes(uint64(o.Total)), utils.FormatSpeed(o.Current, elapsed))
		return pendingStyle.Render(StyleSymbols["pending"]+" "+o.Name) + " " + ProgressBar(o.Current, o.Total, 30) + " " + debugStyle.Render(stats)
	default:
		message := o.Message
		if message == "" {
			message = "waiting"
		}
		return pendingStyle.Render(StyleSymbols["pending"]+" "+o.Name) + " " + debugStyle.Render(message)
	}
}

func (m *Manager) printErrors() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.outputs {
		if o.Err != nil {
			PrintError(fmt.Sprintf("%s %s: %v", StyleSymbols["fail"], o.Name, o.Err))
		}
	}
}
