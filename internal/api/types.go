package api

import "time"

// ServerSummary identifies a monitored server. Slug is the stable key.
type ServerSummary struct {
	ID               int64      `json:"id"`
	Slug             string     `json:"slug"`
	Name             string     `json:"name"`
	Hostname         string     `json:"hostname"`
	Description      string     `json:"description"`
	IsActive         bool       `json:"is_active"`
	LastSeenAt       *time.Time `json:"last_seen_at"`
	LastAgentVersion string     `json:"last_agent_version"`
	SnapshotCount    *int64     `json:"snapshot_count,omitempty"`
	LatestSnapshotAt *time.Time `json:"latest_snapshot_at,omitempty"`
}

// DisplayName returns the name, falling back to the hostname and then the slug.
func (s ServerSummary) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Hostname != "":
		return s.Hostname
	default:
		return s.Slug
	}
}

// CPUMetrics is the CPU section of a snapshot.
type CPUMetrics struct {
	UsagePercent  float64  `json:"usage_percent"`
	UserPercent   *float64 `json:"user_percent"`
	SystemPercent *float64 `json:"system_percent"`
	IOWaitPercent *float64 `json:"iowait_percent"`
	Load1         *float64 `json:"load_1"`
	Load5         *float64 `json:"load_5"`
	Load15        *float64 `json:"load_15"`
	FrequencyMHz  *float64 `json:"frequency_mhz"`
	CountLogical  int      `json:"count_logical"`
	CountPhysical *int     `json:"count_physical"`
}

// MemoryMetrics is the memory and swap section of a snapshot.
type MemoryMetrics struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	Percent        float64 `json:"percent"`
	SwapTotalBytes uint64  `json:"swap_total_bytes"`
	SwapUsedBytes  uint64  `json:"swap_used_bytes"`
	SwapPercent    float64 `json:"swap_percent"`
}

// DiskDevice holds per-device disk throughput.
type DiskDevice struct {
	Device          string  `json:"device"`
	ReadBps         float64 `json:"read_bps"`
	WriteBps        float64 `json:"write_bps"`
	ReadIOPS        float64 `json:"read_iops"`
	WriteIOPS       float64 `json:"write_iops"`
	UtilPercent     float64 `json:"util_percent"`
	ReadBytesTotal  uint64  `json:"read_bytes_total"`
	WriteBytesTotal uint64  `json:"write_bytes_total"`
}

// DiskMetrics aggregates disk activity across devices.
type DiskMetrics struct {
	ReadBps        float64      `json:"read_bps"`
	WriteBps       float64      `json:"write_bps"`
	ReadIOPS       float64      `json:"read_iops"`
	WriteIOPS      float64      `json:"write_iops"`
	UtilPercent    float64      `json:"util_percent"`
	AvgUtilPercent float64      `json:"avg_util_percent"`
	Devices        []DiskDevice `json:"devices"`
}

// NetworkMetrics holds receive/transmit rates in bytes per second.
type NetworkMetrics struct {
	RxBps float64 `json:"rx_bps"`
	TxBps float64 `json:"tx_bps"`
}

// GPUDevice holds per-GPU readings. Nullable fields are absent when the
// driver does not report them.
type GPUDevice struct {
	Index                    int      `json:"gpu_index"`
	Name                     string   `json:"name"`
	UUID                     string   `json:"uuid"`
	UtilizationGPUPercent    *float64 `json:"utilization_gpu_percent"`
	UtilizationMemoryPercent *float64 `json:"utilization_memory_percent"`
	MemoryTotalBytes         uint64   `json:"memory_total_bytes"`
	MemoryUsedBytes          uint64   `json:"memory_used_bytes"`
	MemoryPercent            *float64 `json:"memory_percent"`
	TemperatureC             *float64 `json:"temperature_c"`
	PowerW                   *float64 `json:"power_w"`
	PowerLimitW              *float64 `json:"power_limit_w"`
}

// GPUMetrics summarizes all GPUs on a server.
type GPUMetrics struct {
	Present          bool        `json:"present"`
	Count            int         `json:"count"`
	TopUtilPercent   *float64    `json:"top_util_percent"`
	AvgUtilPercent   *float64    `json:"avg_util_percent"`
	TopMemoryPercent *float64    `json:"top_memory_percent"`
	AvgMemoryPercent *float64    `json:"avg_memory_percent"`
	Devices          []GPUDevice `json:"devices"`
}

// Bottleneck is the backend's guess at the limiting resource.
type Bottleneck struct {
	Label      string  `json:"label"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// MetricSnapshot is one collected sample for a server.
type MetricSnapshot struct {
	ID              int64          `json:"id"`
	Server          *ServerSummary `json:"server"`
	CollectedAt     time.Time      `json:"collected_at"`
	AgeSeconds      float64        `json:"age_seconds"`
	IntervalSeconds *float64       `json:"interval_seconds"`
	CPU             CPUMetrics     `json:"cpu"`
	Memory          MemoryMetrics  `json:"memory"`
	Disk            DiskMetrics    `json:"disk"`
	Network         NetworkMetrics `json:"network"`
	ProcessCount    int            `json:"process_count"`
	GPU             GPUMetrics     `json:"gpu"`
	Bottleneck      Bottleneck     `json:"bottleneck"`
}

// HistoryPointGPU is a per-GPU reading inside a history point.
type HistoryPointGPU struct {
	Index                 int      `json:"gpu_index"`
	UtilizationGPUPercent *float64 `json:"utilization_gpu_percent"`
	MemoryPercent         *float64 `json:"memory_percent"`
	TemperatureC          *float64 `json:"temperature_c"`
}

// HistoryPointDisk is a per-device reading inside a history point.
type HistoryPointDisk struct {
	Device      string  `json:"device"`
	ReadBps     float64 `json:"read_bps"`
	WriteBps    float64 `json:"write_bps"`
	UtilPercent float64 `json:"util_percent"`
}

// HistoryPoint is a downsampled sample used for charts.
type HistoryPoint struct {
	CollectedAt         time.Time          `json:"collected_at"`
	CPUUsagePercent     float64            `json:"cpu_usage_percent"`
	CPUIOWaitPercent    *float64           `json:"cpu_iowait_percent"`
	MemoryPercent       float64            `json:"memory_percent"`
	SwapPercent         float64            `json:"swap_percent"`
	DiskReadBps         float64            `json:"disk_read_bps"`
	DiskWriteBps        float64            `json:"disk_write_bps"`
	DiskUtilPercent     float64            `json:"disk_util_percent"`
	DiskAvgUtilPercent  *float64           `json:"disk_avg_util_percent"`
	NetworkRxBps        float64            `json:"network_rx_bps"`
	NetworkTxBps        float64            `json:"network_tx_bps"`
	GPUTopUtilPercent   *float64           `json:"gpu_top_util_percent"`
	GPUAvgUtilPercent   *float64           `json:"gpu_avg_util_percent"`
	GPUTopMemoryPercent *float64           `json:"gpu_top_memory_percent"`
	Bottleneck          string             `json:"bottleneck"`
	GPUs                []HistoryPointGPU  `json:"gpus"`
	Disks               []HistoryPointDisk `json:"disks"`
}

// Notification levels.
const (
	LevelCritical = "critical"
	LevelWarning  = "warning"
	LevelInfo     = "info"
)

// NotificationItem is one entry of the notification feed.
type NotificationItem struct {
	ID        int64          `json:"id"`
	Level     string         `json:"level"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Code      string         `json:"code,omitempty"`
	Server    *ServerSummary `json:"server,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	IsRead    bool           `json:"is_read"`
}

// ServersResponse is returned by /api/servers/.
type ServersResponse struct {
	OK      bool            `json:"ok"`
	Servers []ServerSummary `json:"servers"`
}

// LatestResponse is returned by /api/metrics/latest/.
type LatestResponse struct {
	OK             bool            `json:"ok"`
	Servers        []ServerSummary `json:"servers"`
	SelectedServer *ServerSummary  `json:"selected_server"`
	Snapshot       MetricSnapshot  `json:"snapshot"`
}

// HistoryResponse is returned by /api/metrics/history/.
type HistoryResponse struct {
	OK             bool            `json:"ok"`
	Minutes        int             `json:"minutes"`
	PointCount     int             `json:"point_count"`
	Stride         int             `json:"stride"`
	Servers        []ServerSummary `json:"servers"`
	SelectedServer *ServerSummary  `json:"selected_server"`
	Points         []HistoryPoint  `json:"points"`
}

// NotificationsResponse is returned by /api/notifications/.
type NotificationsResponse struct {
	OK            bool               `json:"ok"`
	Notifications []NotificationItem `json:"notifications"`
}

// UnreadIDs returns the ids of unread notifications in feed order.
func (r *NotificationsResponse) UnreadIDs() []int64 {
	if r == nil {
		return nil
	}
	var ids []int64
	for _, n := range r.Notifications {
		if !n.IsRead {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// MarkReadRequest is the body of /api/notifications/mark-read/.
type MarkReadRequest struct {
	IDs []int64 `json:"ids"`
}

// MarkReadResponse reports how many rows the backend updated.
type MarkReadResponse struct {
	OK      bool `json:"ok"`
	Updated int  `json:"updated"`
}

// LoginRequest is the body of /api/auth/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful credential login.
type LoginResponse struct {
	OK   bool `json:"ok"`
	User struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

// ErrorPayload is the structured error body: {ok:false, error:"..."}.
type ErrorPayload struct {
	OK           bool   `json:"ok"`
	Error        string `json:"error"`
	AuthRequired bool   `json:"auth_required,omitempty"`
	LoginURL     string `json:"login_url,omitempty"`
}

// NotFoundPayload is the 404 body of /api/metrics/latest/ when a server has
// no snapshot yet. It still lists servers so selection can populate.
type NotFoundPayload struct {
	OK             bool            `json:"ok"`
	Error          string          `json:"error"`
	Servers        []ServerSummary `json:"servers,omitempty"`
	SelectedServer *ServerSummary  `json:"selected_server,omitempty"`
}
