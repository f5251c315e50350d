// Package report forwards recovered failures to Sentry.
//
// Provider failures never reach API callers because every trip planning
// operation has a fallback; reporting them here is the only place they
// remain visible.
package report

import (
	"os"
	"runtime"

	"github.com/getsentry/sentry-go"
)

// ConfigureScope sets global Sentry scope tags related to the runtime and host.
func ConfigureScope(env, version string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("env", env)
		scope.SetTag("app_version", version)
		scope.SetTag("go_version", runtime.Version())
		scope.SetContext("host_info", map[string]interface{}{
			"hostname": getHostname(),
		})
	})
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}

// Options provides optional data for reporting.
type Options struct {
	ExtraContext map[string]interface{}
	Tags         map[string]string
	Level        sentry.Level
}

// ReportError reports err with the given options. A nil error is ignored.
func ReportError(err error, opts Options) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if opts.ExtraContext != nil {
			scope.SetContext("extra", opts.ExtraContext)
		}
		for k, v := range opts.Tags {
			scope.SetTag(k, v)
		}
		if opts.Level != "" {
			scope.SetLevel(opts.Level)
		}
		sentry.CaptureException(err)
	})
}

// ProviderFailure reports a swallowed upstream failure at warning level.
func ProviderFailure(err error, provider, operation string) {
	ReportError(err, Options{
		Tags: map[string]string{
			"provider":  provider,
			"operation": operation,
		},
		Level: sentry.LevelWarning,
	})
}
