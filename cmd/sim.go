package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/DevBash1/trackpadal/config"
	"github.com/DevBash1/trackpadal/core/emit"
	"github.com/DevBash1/trackpadal/core/model"
	"github.com/DevBash1/trackpadal/core/sim"
	"github.com/DevBash1/trackpadal/infra/logger"
	"github.com/DevBash1/trackpadal/infra/ws"
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run a simulated bicycle against the relay",
	Long: `Run a simulated bicycle against the relay.

Operator commands are read from stdin, one per line:
  start | stop
  speed <kmh>
  torch on|off
  tyre up|down
  reset position|battery`,
	RunE: runSim,
}

func init() {
	rootCmd.AddCommand(simCmd)
}

func simConfig(c config.SimConfig) sim.Config {
	return sim.Config{
		TickInterval:    time.Duration(c.TickMs) * time.Millisecond,
		InitialSpeedKmh: c.InitialSpeedKmh,
		AutoStart:       !c.StartPaused,
	}
}

// applyControl parses one operator line and applies it to the
// simulator.
func applyControl(s *sim.Simulator, line string) error {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "start":
		s.Start()
	case "stop":
		s.Stop()
	case "speed":
		if len(fields) != 2 {
			return fmt.Errorf("usage: speed <kmh>")
		}
		kmh, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("speed %q: %w", fields[1], err)
		}
		s.SetSpeed(kmh)
	case "torch":
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			return fmt.Errorf("usage: torch on|off")
		}
		s.SetTorch(fields[1] == "on")
	case "tyre":
		if len(fields) != 2 || (fields[1] != "up" && fields[1] != "down") {
			return fmt.Errorf("usage: tyre up|down")
		}
		s.AdjustTyrePressure(fields[1] == "up")
	case "reset":
		if len(fields) != 2 {
			return fmt.Errorf("usage: reset position|battery")
		}
		switch fields[1] {
		case "position":
			s.ResetPosition()
		case "battery":
			s.ResetBattery()
		default:
			return fmt.Errorf("usage: reset position|battery")
		}
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}

// runConsole feeds operator lines from in into the simulator until the
// input is exhausted or ctx is done.
func runConsole(ctx context.Context, s *sim.Simulator, in io.Reader, log logger.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := applyControl(s, line); err != nil {
			log.Warnf("%v", err)
		}
	}
}

func runSim(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tier, err := model.ParseTier(cfg.Sim.Tier)
	if err != nil {
		return err
	}
	sessionID := cfg.Sim.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	logg := logger.New("sim")
	client, err := ws.Dial(ctx, cfg.Sim.ServerURL)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logg.Errorf("close connection: %v", err)
		}
	}()

	emitter := emit.New(tier, client, logger.New("emit"))
	simulator := sim.New(simConfig(cfg.Sim), emitter.OnSnapshot, logg)

	go runConsole(ctx, simulator, os.Stdin, logg)

	logg.Infof("session %s riding as %s against %s", sessionID, tier, cfg.Sim.ServerURL)
	return simulator.Run(ctx)
}
