package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerConfigValidate(t *testing.T) {
	cfg := logging.DefaultLoggerConfig()
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.Format = "xml"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Level = "chatty"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.OutputDir = t.TempDir()
	bad.MaxFiles = 0
	assert.Error(t, bad.Validate())
}

func TestCustomFormatterSortsFields(t *testing.T) {
	f := &logging.CustomFormatter{}
	entry := &logrus.Entry{
		Level:   logrus.WarnLevel,
		Message: "Case finished",
		Data: logrus.Fields{
			"zeta":     1,
			"alpha":    "a",
			"duration": 1500 * time.Microsecond,
			"err":      errors.New("boom"),
		},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "WARNING Case finished alpha=a duration=2ms err=boom zeta=1\n", string(out))
}

func TestOracleFormatterPrefix(t *testing.T) {
	f := &logging.OracleFormatter{}
	out, err := f.Format(&logrus.Entry{Level: logrus.InfoLevel, Message: "Suite finished"})
	require.NoError(t, err)
	assert.Equal(t, "INFO [SUITE] Suite finished\n", string(out))

	out, err = f.Format(&logrus.Entry{Level: logrus.InfoLevel, Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "INFO hello\n", string(out))
}

func TestLoggerWritesFileAndAppliesRetention(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"oracle_old1.log", "oracle_old2.log", "oracle_old3.log"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, nil, 0644))
		old := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(path, old, old))
	}

	var console bytes.Buffer
	cfg := &logging.LoggerConfig{
		Level:     logging.LogLevelInfo,
		Format:    logging.LogFormatCustom,
		OutputDir: dir,
		MaxFiles:  2,
	}
	logger, err := logging.NewLogger(cfg, &console)
	require.NoError(t, err)
	logger.LogSuite("run", 1, 2, 3, 4)
	require.NoError(t, logger.Close())

	assert.Contains(t, console.String(), "[SUITE] Suite finished")
	data, err := os.ReadFile(logger.FilePath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "failed=3")

	files, err := filepath.Glob(filepath.Join(dir, "oracle_*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Contains(t, files, logger.FilePath())
}

func TestLoggerCloseReportsFileError(t *testing.T) {
	cfg := &logging.LoggerConfig{
		Level:     logging.LogLevelInfo,
		Format:    logging.LogFormatText,
		OutputDir: t.TempDir(),
		MaxFiles:  5,
	}
	logger, err := logging.NewLogger(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	err = logger.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestLoggerDebugHelpersRespectLevel(t *testing.T) {
	var console bytes.Buffer
	logger, err := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: logging.LogFormatCustom}, &console)
	require.NoError(t, err)
	logger.LogEngineRun("2-1-bb-1.0-C", "free", 20, time.Second)
	assert.Empty(t, console.String())

	logger.GetLogger().SetLevel(logrus.DebugLevel)
	logger.LogEngineRun("2-1-bb-1.0-C", "free", 20, time.Second)
	assert.Contains(t, console.String(), "[ENGINE]")
}
