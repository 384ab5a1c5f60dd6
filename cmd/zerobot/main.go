package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lab1702/zerobot/internal/config"
	"github.com/lab1702/zerobot/internal/game"
	"github.com/lab1702/zerobot/internal/netmsg"
	"github.com/lab1702/zerobot/internal/security"
	"github.com/lab1702/zerobot/internal/ship"
	"github.com/lab1702/zerobot/internal/telemetry"
	"github.com/lab1702/zerobot/internal/tilemap"
)

// stubConnection stands in for the real UDP transport collaborator until
// one is attached: it records outgoing traffic and exposes the arena
// settings loaded from the zone config. The core never depends on more
// than the netmsg.Connection contract.
type stubConnection struct {
	logger   *log.Logger
	settings netmsg.ArenaSettings
	start    time.Time
}

func (c *stubConnection) Send(buffer []byte) {}

func (c *stubConnection) SendReliableMessage(payload []byte) {}

func (c *stubConnection) ServerTick() uint32 {
	return uint32(time.Since(c.start).Milliseconds() / 10)
}

func (c *stubConnection) Settings() netmsg.ArenaSettings { return c.settings }

// stubBallSender logs ball traffic the transport collaborator would carry.
type stubBallSender struct{ logger *log.Logger }

func (s stubBallSender) SendBallFire(id uint8, pos, vel mgl64.Vec2, pid uint16, ts uint32) {
	s.logger.Printf("ball %d fired by %d at (%.1f, %.1f)", id, pid, pos.X(), pos.Y())
}
func (s stubBallSender) SendBallPickup(id uint8, ts uint32) {
	s.logger.Printf("ball %d pickup requested", id)
}
func (s stubBallSender) SendBallGoal(id uint8, ts uint32) {
	s.logger.Printf("ball %d goal", id)
}

func main() {
	configPath := flag.String("config", "zerobot.toml", "runtime config path")
	mapPath := flag.String("map", "", "map file to load")
	flag.Parse()

	logger := log.New(os.Stderr, "zerobot: ", log.LstdFlags)

	rt, err := config.LoadRuntime(*configPath)
	if err != nil {
		logger.Printf("runtime config unavailable (%v), using defaults", err)
		rt = &config.Runtime{}
	}

	tm := tilemap.New()
	if *mapPath != "" {
		data, err := os.ReadFile(*mapPath)
		if err != nil {
			// map-load failure at connect time is the one fatal condition
			logger.Fatalf("map load: %v", err)
		}
		tm, err = tilemap.Load(data)
		if err != nil {
			logger.Fatalf("map parse: %v", err)
		}
	}

	conn := &stubConnection{logger: logger, start: time.Now()}

	var hub *telemetry.Hub
	if rt.Telemetry.ListenAddr != "" {
		hub = telemetry.NewHub(10, logger)
		go hub.Run()
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv := &http.Server{Addr: rt.Telemetry.ListenAddr, Handler: mux, ReadTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("telemetry server: %v", err)
			}
		}()
		logger.Printf("telemetry on %s", rt.Telemetry.ListenAddr)
	}

	var solver *security.Solver
	if rt.Security.SolverAddr != "" {
		solver = security.NewSolver(rt.Security.SolverAddr, logger)
	}

	state := game.New(game.Config{
		Conn:       conn,
		Logger:     logger,
		Map:        tm,
		BallSender: stubBallSender{logger: logger},
		ShipRadius: 14.0 / 16.0,
		Hub:        hub,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	logger.Printf("running")

	// The behavior layer publishes an InputState each tick; with none
	// attached the bot idles in place.
	var input ship.InputState

	for {
		select {
		case <-ticker.C:
			state.Update(input, 0.01)
			if solver != nil {
				solver.Update()
			}
		case sig := <-sigChan:
			logger.Printf("shutting down (%v)", sig)
			if solver != nil {
				solver.ClearWork()
			}
			return
		}
	}
}
