package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

type AgentConfig struct {
	ID          int           `yaml:"id"`
	Goroutines  int           `yaml:"goroutines"`
	Duration    time.Duration `yaml:"duration"`
	Episodes    int           `yaml:"episodes"`
	Cutoff      int           `yaml:"cutoff"`
	VisitTarget int           `yaml:"visit_target"`
	Temperature float64       `yaml:"temperature"` // Training agent when positive
}

type GameRecord struct {
	ID     int
	Agent1 int // AgentConfig.ID
	Agent2 int // AgentConfig.ID
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

// moveRow is the parquet layout of a MoveRecord.
type moveRow struct {
	Game           int32   `parquet:"game"`
	Step           int32   `parquet:"step"`
	Player         string  `parquet:"player,dict"`
	Move           string  `parquet:"move"`
	DurationNs     int64   `parquet:"duration_ns"`
	Goroutines     int32   `parquet:"goroutines"`
	Episodes       int32   `parquet:"episodes"`
	Cutoff         int32   `parquet:"cutoff"`
	FullPlayouts   int32   `parquet:"full_playouts"`
	NodesExpanded  int32   `parquet:"nodes_expanded"`
	NodesCollected int32   `parquet:"nodes_collected"`
	TableSize      int32   `parquet:"table_size"`
	RootPlayouts   int32   `parquet:"root_playouts"`
	VisitEntropy   float64 `parquet:"visit_entropy"`
	StopReason     string  `parquet:"stop_reason,dict"`
	IsTreeReused   bool    `parquet:"is_tree_reused"`
}

type Writer struct {
	baseDir string
}

// NewWriter creates a subfolder of root named by experiment and current timestamp.
func NewWriter(root, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "goroutines", "duration", "episodes", "cutoff", "visit_target", "temperature"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.Itoa(config.Goroutines),
			config.Duration.String(),
			strconv.Itoa(config.Episodes),
			strconv.Itoa(config.Cutoff),
			strconv.Itoa(config.VisitTarget),
			strconv.FormatFloat(config.Temperature, 'g', -1, 64),
		})
	}
	return w.writeCSV("agent_configs.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "agent1", "agent2", "winner", "scores", "start_time", "end_time", "duration", "total_moves"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Agent1),
			strconv.Itoa(record.Agent2),
			record.Winner,
			record.Scores,
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
		})
	}
	return w.writeCSV("game_records.csv", header, rows)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	err = writer.WriteAll(rows)
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}

// WriteMoveRecords stores move records as zstd compressed parquet. The file is
// written under a temporary name and renamed once complete.
func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	rows := make([]moveRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, moveRow{
			Game:           int32(record.Game),
			Step:           int32(record.Step),
			Player:         record.Player,
			Move:           record.Move,
			DurationNs:     record.Duration.Nanoseconds(),
			Goroutines:     int32(record.Goroutines),
			Episodes:       int32(record.Episodes),
			Cutoff:         int32(record.Cutoff),
			FullPlayouts:   int32(record.FullPlayouts),
			NodesExpanded:  int32(record.NodesExpanded),
			NodesCollected: int32(record.NodesCollected),
			TableSize:      int32(record.TableSize),
			RootPlayouts:   int32(record.RootPlayouts),
			VisitEntropy:   record.VisitEntropy,
			StopReason:     string(record.StopReason),
			IsTreeReused:   record.IsTreeReused,
		})
	}

	finalPath := filepath.Join(w.baseDir, "move_records.parquet")
	tmpPath := finalPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "move_records_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write move records: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename move records: %w", err)
	}
	return nil
}
