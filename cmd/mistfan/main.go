// Command mistfan drives a two-actuator misting fan: three push-buttons are
// polled for gestures that control the mist solenoid and the fan PWM channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/mistfan/internal/actuator"
	"github.com/sweeney/mistfan/internal/config"
	"github.com/sweeney/mistfan/internal/control"
	"github.com/sweeney/mistfan/internal/gesture"
	"github.com/sweeney/mistfan/internal/hw"
	"github.com/sweeney/mistfan/internal/mqtt"
	"github.com/sweeney/mistfan/internal/sched"
	"github.com/sweeney/mistfan/internal/status"
	"github.com/sweeney/mistfan/internal/web"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config file")
	poll := flag.Duration("poll", config.DefaultPollMs*time.Millisecond, "button poll interval")
	idleTimeout := flag.Duration("idle-timeout", config.DefaultIdleTimeoutMs*time.Millisecond, "idle watchdog timeout")
	broker := flag.String("broker", "", `MQTT broker address (empty or "off" to disable)`)
	heartbeat := flag.Duration("heartbeat", config.DefaultHeartbeatMs*time.Millisecond, "heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", `HTTP status address (empty or "off" to disable)`)
	printState := flag.Bool("print-state", false, "print current button state and exit")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	// Explicitly set flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			cfg.Timings.PollMs = poll.Milliseconds()
		case "idle-timeout":
			cfg.Timings.IdleTimeoutMs = idleTimeout.Milliseconds()
		case "broker":
			cfg.MQTT.Broker = *broker
		case "heartbeat":
			cfg.MQTT.HeartbeatMs = heartbeat.Milliseconds()
		case "http":
			cfg.HTTP.Addr = *httpAddr
		}
	})

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printState bool) error {
	pins := hw.Pins{
		Mist:          cfg.Pins.Mist,
		PWMChip:       cfg.PWM.Chip,
		PWMChannel:    cfg.PWM.Channel,
		PWMFreqHz:     uint32(cfg.PWM.FrequencyHz),
		PrecisionBits: uint(cfg.PWM.Bits),
	}
	copy(pins.Buttons[:], cfg.Pins.Buttons)

	dev, err := hw.OpenReal(pins)
	if err != nil {
		return fmt.Errorf("init hardware: %w", err)
	}
	defer dev.Close()

	// Print state mode
	if printState {
		for i := 0; i < hw.NumButtons; i++ {
			pressed, err := dev.Button(i).Pressed()
			if err != nil {
				return fmt.Errorf("read button %d: %w", i+1, err)
			}
			state := "released"
			if pressed {
				state = "pressed"
			}
			fmt.Printf("button %d: %s\n", i+1, state)
		}
		return nil
	}

	broker := resolveOff(cfg.MQTT.Broker)
	httpAddr := resolveOff(cfg.HTTP.Addr)

	// Initialize MQTT, unless disabled
	var pub mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if broker != "" {
		publisher := mqtt.NewRealPublisher(broker, cfg.MQTT.ClientID)
		defer publisher.Close()
		pub = publisher
		mqttStatus = publisher
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:        cfg.Timings.PollMs,
		DebounceMs:    cfg.Timings.DebounceMs,
		ClickWindowMs: cfg.Timings.ClickWindowMs,
		LongPressMs:   cfg.Timings.LongPressMs,
		IdleTimeoutMs: cfg.Timings.IdleTimeoutMs,
		HeartbeatMs:   cfg.MQTT.HeartbeatMs,
		Broker:        broker,
		HTTPAddr:      httpAddr,
	})

	// Publish startup event with full status snapshot
	if pub != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := pub.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	scheduler := sched.New(time.Now)
	act := actuator.New(dev.Mist(), dev.Fan(), uint(cfg.PWM.Bits))

	var readers [hw.NumButtons]hw.ButtonReader
	for i := range readers {
		readers[i] = dev.Button(i)
	}

	ctl := control.New(time.Now, scheduler, act, readers, tracker, pub, control.Config{
		IdleTimeout: cfg.Timings.IdleTimeout(),
		Gesture: gesture.Config{
			Debounce:    cfg.Timings.Debounce(),
			ClickWindow: cfg.Timings.ClickWindow(),
			LongPress:   cfg.Timings.LongPress(),
		},
	})
	ctl.Start()

	log.Printf("started: poll=%v idle-timeout=%v broker=%s heartbeat=%v",
		cfg.Timings.Poll(), cfg.Timings.IdleTimeout(), broker, cfg.MQTT.Heartbeat())

	ticker := time.NewTicker(cfg.Timings.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(scheduler, act, pub, mqttStatus, tracker, cfg.MQTT.Heartbeat(), time.Now, ticker.C, sigCh)
}

func runLoop(s *sched.Scheduler, act *actuator.Controller, pub mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case sg := <-sig:
			log.Printf("received %v, shutting down", sg)
			signalName := "UNKNOWN"
			if sg == syscall.SIGINT {
				signalName = "SIGINT"
			} else if sg == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			// The outputs must not stay latched on past the daemon.
			act.ForceOff()

			if pub != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  now(),
					Event:      "SHUTDOWN",
					Reason:     signalName,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
				}
				if err := pub.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-tick:
			t := now()
			s.Tick()

			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			// The heartbeat lives outside the scheduler: a cancel-all wipes
			// scheduled tasks and must not silence the daemon.
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				snap := tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v gestures=%d pulses=%d timeouts=%d",
					snap.Uptime().Truncate(time.Second), snap.Counts.Gestures, snap.Counts.MistPulses, snap.Counts.IdleTimeouts)
				if pub != nil {
					hb := mqtt.SystemEvent{
						Timestamp:  t,
						Event:      "HEARTBEAT",
						RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
					}
					if err := pub.PublishSystem(hb); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}
		}
	}
}

// resolveOff treats the literal "off" as disabled.
func resolveOff(v string) string {
	if v == "off" {
		return ""
	}
	return v
}
