package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Standalone package to avoid import cycles
// between the auth service and HTTP packages.

var (
	Registrations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Cuentas registradas (status PENDING creado)",
	})

	Activations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_activations_total",
		Help: "Cuentas activadas (PENDING -> VERIFIED)",
	})

	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Intentos de login por resultado",
	}, []string{"result"})

	PasswordResets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_password_resets_total",
		Help: "Eventos del flujo de password reset por fase",
	}, []string{"phase"})

	MailSendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_mail_send_failures_total",
		Help: "Envíos de mail fallidos (no fatales incluidos)",
	})

	LoginDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_login_duration_ms",
		Help:    "Latencia de Login en milisegundos (dominada por bcrypt)",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// RegisterAuth registers the auth metrics on the given registry (or default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cs := []prometheus.Collector{
		Registrations, Activations, Logins, PasswordResets, MailSendFailures, LoginDuration,
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
