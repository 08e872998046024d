package cli

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rc-tools/rccalllog/internal/config"
	"github.com/rc-tools/rccalllog/internal/metrics"
	"github.com/rc-tools/rccalllog/internal/ringcentral"
)

// session is one authenticated command run.
type session struct {
	runID   string
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	client  *ringcentral.Client

	metricsTextfile string
}

// open loads configuration, authenticates and builds the API client. All
// configuration problems are reported before the first network call.
func (env *environment) open(cmd *cobra.Command, command string) (*session, error) {
	cfg, err := config.Load(env.envFile, env.clock.Now())
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := newLogger(cmd.ErrOrStderr(), env.verbose).With(
		zap.String("run_id", runID),
		zap.String("command", command),
	)
	m := metrics.New()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	auth := ringcentral.NewSession(ctx, cfg.Credentials, env.httpClient)
	if err := auth.Login(); err != nil {
		logger.Error("authentication failed", zap.Error(err))
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("authenticated", zap.String("server", cfg.Credentials.Server))

	client, err := ringcentral.New(cfg.Credentials.Server, auth.HTTPClient(),
		ringcentral.WithThrottle(ringcentral.NewThrottle(cfg.Settings.RequestInterval, env.clock)),
		ringcentral.WithRetryPolicy(retryPolicy(cfg.Settings)),
		ringcentral.WithClock(env.clock),
		ringcentral.WithLogger(logger),
		ringcentral.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}

	return &session{
		runID:           runID,
		cfg:             cfg,
		logger:          logger,
		metrics:         m,
		client:          client,
		metricsTextfile: env.metricsTextfile,
	}, nil
}

func retryPolicy(s config.Settings) ringcentral.RetryPolicy {
	p := ringcentral.DefaultRetryPolicy()
	p.MaxRetries = s.MaxRetries
	p.RetryAfterDefault = s.RetryAfterDefault
	return p
}

// close writes the metrics textfile and flushes the logger.
func (s *session) close() {
	if err := s.metrics.WriteTextfile(s.metricsTextfile); err != nil {
		s.logger.Warn("failed to write metrics textfile", zap.String("path", s.metricsTextfile), zap.Error(err))
	}
	_ = s.logger.Sync()
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
