package insertabove

import (
	"errors"
	"testing"
	"time"

	"github.com/itsatony/go-cuserr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.observeRender(10*time.Millisecond, nil)
	m.observeRender(5*time.Millisecond, errors.New("boom"))
	m.observeDeposit()
	m.observeDeposit()
	m.observeContainer(ContainerKindMedia, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues(MetricStatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues(MetricStatusError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deposits))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.containerItems.WithLabelValues(ContainerKindMedia)))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	require.Error(t, err)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	opt, ok := customErr.GetMetadata(MetaKeyOption)
	assert.True(t, ok)
	assert.Equal(t, OptionMetrics, opt)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeRender(time.Second, nil)
		m.observeDeposit()
		m.observeContainer(ContainerKindVerbatim, 1)
	})
}
