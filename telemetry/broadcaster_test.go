package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2cell/cellctrl/internal/calog"
	"github.com/m2cell/cellctrl/model"
	"github.com/m2cell/cellctrl/power"
)

func testLog() *calog.Log { return calog.New(io.Discard, calog.LevelCritical) }

func TestEncodeItemAxialForceUsesJsonenc(t *testing.T) {
	var vec [72]float64
	vec[0] = 1.5
	vec[71] = -2.25
	item := Item{Name: "axialForce", Timestamp: time.Unix(0, 0), Data: AxialForce{LutGravity: vec}}

	b, err := EncodeItem(item)
	require.NoError(t, err)

	var decoded struct {
		Name string `json:"name"`
		Data struct {
			LutGravity [72]float64 `json:"lutGravity"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "axialForce", decoded.Name)
	assert.Equal(t, 1.5, decoded.Data.LutGravity[0])
	assert.Equal(t, -2.25, decoded.Data.LutGravity[71])
}

func TestEncodeItemGenericFallsBackToJSON(t *testing.T) {
	item := Item{Name: "summaryState", Timestamp: time.Unix(0, 0), Data: systemStateItemOf(model.Standby)}
	b, err := EncodeItem(item)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"state":"STANDBY"`)
}

func TestBroadcasterRegisterSendsWelcomeSequence(t *testing.T) {
	snap := func() Snapshot {
		return Snapshot{
			MotorState: power.Off,
			CommState:  power.Off,
		}
	}
	b := NewBroadcaster(snap, testLog())

	var buf bytes.Buffer
	c := NewClient(&buf, testLog(), 0)
	b.Register(c)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 16, "welcome sequence must be exactly 16 items")

	powerStateCount := 0
	for _, line := range lines {
		var item struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &item))
		if item.Name == "powerSystemState" {
			powerStateCount++
		}
	}
	assert.Equal(t, 2, powerStateCount, "one powerSystemState item per bus")
}

func TestBroadcasterReportPowerSystemStateChangeIsSynchronous(t *testing.T) {
	b := NewBroadcaster(func() Snapshot { return Snapshot{} }, testLog())
	var buf bytes.Buffer
	c := NewClient(&buf, testLog(), 0)
	b.Register(c)
	buf.Reset()

	b.ReportPowerSystemStateChange(power.Motor, power.On, power.On)

	var item struct {
		Name string `json:"name"`
		Data struct {
			PowerType string `json:"powerType"`
			State     string `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &item))
	assert.Equal(t, "powerSystemState", item.Name)
	assert.Equal(t, "MOTOR", item.Data.PowerType)
	assert.Equal(t, "ON", item.Data.State)
}

func TestClientDrainPushBackBatchesSubmissions(t *testing.T) {
	var buf bytes.Buffer
	c := NewClient(&buf, testLog(), 0)
	c.SubmitPushBack(PushBack{Name: "a", Value: json.RawMessage(`1`)})
	c.SubmitPushBack(PushBack{Name: "b", Value: json.RawMessage(`2`)})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var got []string
	err := c.DrainPushBack(ctx, func(p PushBack) error {
		got = append(got, p.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}
