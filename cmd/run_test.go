// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/luthersystems/boxlang/lang"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func testConfigs(t *testing.T, settings map[string]interface{}) []lang.Config {
	v := viper.New()
	v.SetDefault("capacity", lang.DefaultCapacity)
	v.SetDefault("store", "marksweep")
	v.SetDefault("max_stack", lang.DefaultMaxStackHeight)
	for key, val := range settings {
		v.Set(key, val)
	}
	configs, err := runtimeConfigs(v)
	require.NoError(t, err)
	return configs
}

func TestRunProgram(t *testing.T) {
	var buf bytes.Buffer
	ok := runProgram(&buf, "counter", testConfigs(t, nil))
	assert.True(t, ok)
	assert.Equal(t, "counter: 27\n", buf.String())
}

func TestRunProgramExhausted(t *testing.T) {
	var buf bytes.Buffer
	configs := testConfigs(t, map[string]interface{}{"store": "nogc", "capacity": 2})
	assert.False(t, runProgram(&buf, "countdown", configs))
	assert.Empty(t, buf.String())

	configs = testConfigs(t, map[string]interface{}{"store": "marksweep", "capacity": 2})
	assert.True(t, runProgram(&buf, "countdown", configs))
	assert.Equal(t, "countdown: 0\n", buf.String())
}

func TestRunProgramUnknown(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, runProgram(&buf, "missing", testConfigs(t, nil)))
}

func TestRuntimeConfigsInvalid(t *testing.T) {
	v := viper.New()
	v.Set("store", "copying")
	v.Set("capacity", 4)
	_, err := runtimeConfigs(v)
	assert.Error(t, err)

	v.Set("store", "nogc")
	v.Set("capacity", 0)
	_, err = runtimeConfigs(v)
	assert.Error(t, err)
}

func TestWriteDump(t *testing.T) {
	s := lang.NewNoGCStore(2)
	_, err := s.Alloc(nil, lang.Number(5))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeDump(&buf, s, "none"))
	assert.Empty(t, buf.String())
	require.NoError(t, writeDump(&buf, s, "yaml"))
	assert.Contains(t, buf.String(), "strategy: nogc")
	buf.Reset()
	require.NoError(t, writeDump(&buf, s, "text"))
	assert.Contains(t, buf.String(), "store: 1 of 2 slots live")
	assert.Error(t, writeDump(&buf, s, "xml"))
}

func TestListPrograms(t *testing.T) {
	var buf bytes.Buffer
	listPrograms(&buf, false)
	assert.Contains(t, buf.String(), "countdown")
	assert.Contains(t, buf.String(), "factorial")
	assert.NotContains(t, buf.String(), "(fun")

	buf.Reset()
	listPrograms(&buf, true)
	assert.Contains(t, buf.String(), "(fun")
}

func TestSpanPrinter(t *testing.T) {
	var buf bytes.Buffer
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(newSpanPrinter(&buf)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	_, span := tp.Tracer("test").Start(context.Background(), "gc.cycle")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "trace: gc.cycle")
}

func TestRunPrograms(t *testing.T) {
	var buf bytes.Buffer
	configs := testConfigs(t, nil)
	assert.Equal(t, 0, runPrograms(&buf, []string{"counter", "factorial"}, configs))
	assert.Equal(t, "counter: 27\nfactorial: 3628800\n", buf.String())

	buf.Reset()
	assert.Equal(t, 1, runPrograms(&buf, []string{"counter", "missing", "chain"}, configs))
	assert.Equal(t, "counter: 27\n", buf.String())
}
