package kafka_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/kafka"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     kafka.Config
		wantErr []string
	}{
		{"valid", kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "design"}, nil},
		{"no brokers", kafka.Config{Topic: "design"}, []string{"broker"}},
		{"nothing", kafka.Config{Partition: -1}, []string{"broker", "topic", "partition"}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestNewEventLog_RejectsInvalidConfig(t *testing.T) {
	_, err := kafka.NewEventLog(kafka.Config{})
	assert.Error(t, err)
}

func TestKafkaEventLog_InvalidCursor(t *testing.T) {
	log, err := kafka.NewEventLog(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "design"})
	require.NoError(t, err)
	_, err = log.Subscribe(context.Background(), "nope")
	assert.Error(t, err)
}

// TestKafkaEventLog_Contract needs a broker, e.g. CANOPY_KAFKA_BROKERS=localhost:9092.
// Each subtest uses a fresh topic, so the broker must allow auto-creation.
func TestKafkaEventLog_Contract(t *testing.T) {
	brokers := os.Getenv("CANOPY_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("CANOPY_KAFKA_BROKERS not set")
	}
	tests.EventLogContractTest(t, func(t *testing.T) ports.EventLog {
		log, err := kafka.NewEventLog(kafka.Config{
			Brokers: strings.Split(brokers, ","),
			Topic:   "canopy-test-" + time.Now().Format("150405.000000000"),
		})
		require.NoError(t, err)
		return log
	})
}
