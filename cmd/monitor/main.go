package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	healthSubject    = "minivault.health"
	heartbeatSubject = "minivault.heartbeat"
)

// InstanceStatus is one service instance as seen through its heartbeats.
type InstanceStatus struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	LocalLLMAvailable bool   `json:"local_llm_available"`
	OllamaAvailable   bool   `json:"ollama_available"`
	Instance          string `json:"instance"`
	HTTPAddr          string `json:"http_addr"`
	Subject           string `json:"subject"`

	FirstSeen time.Time `json:"-"`
	LastSeen  time.Time `json:"-"`
}

// MonitorService tracks MiniVault instances by their heartbeats.
type MonitorService struct {
	nats      *nats.Conn
	mu        sync.RWMutex
	instances map[string]*InstanceStatus
}

func NewMonitorService(natsURL string) (*MonitorService, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &MonitorService{
		nats:      nc,
		instances: make(map[string]*InstanceStatus),
	}, nil
}

func (m *MonitorService) Start() error {
	_, err := m.nats.Subscribe(heartbeatSubject, func(msg *nats.Msg) {
		var status InstanceStatus
		if err := json.Unmarshal(msg.Data, &status); err != nil {
			log.Printf("Failed to parse heartbeat: %v", err)
			return
		}
		if status.Instance == "" {
			return
		}

		now := time.Now()
		m.mu.Lock()
		if existing, ok := m.instances[status.Instance]; ok {
			status.FirstSeen = existing.FirstSeen
		} else {
			status.FirstSeen = now
		}
		status.LastSeen = now
		m.instances[status.Instance] = &status
		m.mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to heartbeats: %w", err)
	}

	return nil
}

func (m *MonitorService) Instances() []InstanceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var instances []InstanceStatus
	for _, inst := range m.instances {
		instances = append(instances, *inst)
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Instance < instances[j].Instance
	})
	return instances
}

// QueryHealth sends a request to the health subject and returns the reply
// from whichever instance answers first.
func (m *MonitorService) QueryHealth(timeout time.Duration) (*InstanceStatus, time.Duration, error) {
	start := time.Now()
	resp, err := m.nats.Request(healthSubject, nil, timeout)
	if err != nil {
		return nil, 0, fmt.Errorf("health request failed: %w", err)
	}
	rtt := time.Since(start)

	var status InstanceStatus
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, 0, fmt.Errorf("failed to parse health response: %w", err)
	}
	return &status, rtt, nil
}

func (m *MonitorService) Close() {
	if m.nats != nil {
		m.nats.Close()
	}
}

func main() {
	var (
		natsURL    = flag.String("nats", "nats://127.0.0.1:4222", "NATS server URL")
		onceMode   = flag.Bool("once", false, "Query health once and exit")
		staleAfter = flag.Duration("stale", 90*time.Second, "Mark an instance stale after this long without a heartbeat")
	)
	flag.Parse()

	monitor, err := NewMonitorService(*natsURL)
	if err != nil {
		log.Fatalf("Failed to create monitor: %v", err)
	}
	defer monitor.Close()

	if *onceMode {
		status, rtt, err := monitor.QueryHealth(5 * time.Second)
		if err != nil {
			fmt.Printf("❌ No MiniVault service answered: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ MiniVault is %s (rtt %v)\n", status.Status, rtt.Truncate(time.Millisecond))
		fmt.Printf("   Ollama available:      %s\n", yesNo(status.OllamaAvailable))
		fmt.Printf("   Local model available: %s\n", yesNo(status.LocalLLMAvailable))
		fmt.Printf("   Reported at:           %s\n", status.Timestamp)
		return
	}

	if err := monitor.Start(); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}

	runDashboard(monitor, *staleAfter)
}

func runDashboard(monitor *MonitorService, staleAfter time.Duration) {
	// Clear screen and hide cursor
	fmt.Print("\033[2J\033[H\033[?25l")
	defer fmt.Print("\033[?25h")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			return
		case <-ticker.C:
			renderDashboard(monitor.Instances(), staleAfter)
		}
	}
}

func renderDashboard(instances []InstanceStatus, staleAfter time.Duration) {
	fmt.Print("\033[2J\033[H")

	fmt.Printf("🔍 MiniVault Monitor - %s\n\n", time.Now().Format("15:04:05"))

	if len(instances) == 0 {
		fmt.Println("No instances detected")
		fmt.Printf("\nWaiting for heartbeats on %s...\n", heartbeatSubject)
		return
	}

	fmt.Printf("Instances: %d\n\n", len(instances))
	fmt.Printf("%-28s %-10s %-8s %-8s %-12s %-10s %-10s\n",
		"INSTANCE", "STATUS", "OLLAMA", "LOCAL", "HTTP", "UPTIME", "LAST_SEEN")

	for _, inst := range instances {
		status := inst.Status
		if time.Since(inst.LastSeen) > staleAfter {
			status = "stale"
		}

		fmt.Printf("%-28s %-10s %-8s %-8s %-12s %-10s %-10s\n",
			truncateString(inst.Instance, 28),
			status,
			yesNo(inst.OllamaAvailable),
			yesNo(inst.LocalLLMAvailable),
			inst.HTTPAddr,
			formatDuration(time.Since(inst.FirstSeen)),
			formatDuration(time.Since(inst.LastSeen))+" ago")
	}

	fmt.Printf("\nPress Ctrl+C to exit\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
