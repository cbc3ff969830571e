package internal

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	TextsChecked *prometheus.CounterVec
	Misspellings *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := Metrics{
		TextsChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stave_texts_checked_total",
			Help: "Number of texts that have been spellchecked.",
		}, []string{"language"}),
		Misspellings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stave_misspellings_total",
			Help: "Number of misspelled entries found in checked texts.",
		}, []string{"language"}),
	}

	for _, collector := range []prometheus.Collector{
		m.TextsChecked,
		m.Misspellings,
	} {
		err := reg.Register(collector)
		if err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return &m, nil
}
