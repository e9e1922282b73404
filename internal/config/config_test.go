package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"04b8:0202", "0519:0003"}, SplitList(" 04b8:0202, ,0519:0003 "))
	assert.Nil(t, SplitList(""))
}

func TestLoad_PrinterSettingsFromEnv(t *testing.T) {
	t.Setenv("PRINTER_STRATEGY", "Serial")
	t.Setenv("PRINTER_BAUD_RATE", "19200")
	t.Setenv("PRINTER_SERIAL_GRANTS", "/dev/ttyUSB0,/dev/ttyUSB1")
	t.Setenv("PRINTER_DEVICE_TIMEOUT", "3")

	cfg := Load(zap.NewNop())

	assert.Equal(t, "serial", cfg.Printer.Strategy)
	assert.Equal(t, 19200, cfg.Printer.BaudRate)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, cfg.Printer.SerialGrants)
	assert.Equal(t, 3*time.Second, cfg.Printer.DeviceTimeout)
	assert.Equal(t, time.Second, cfg.Printer.JobDelay)
	assert.Equal(t, 2*time.Second, cfg.Printer.FallbackDelay)
	assert.Equal(t, "Asia/Kolkata", cfg.Printer.Timezone)
	assert.True(t, cfg.Printer.FallbackOnFailure)
	assert.Equal(t, "browser", cfg.Fallback.Surface)
}
