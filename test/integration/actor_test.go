//go:build integration

package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/daemon"
	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/infra"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
	"github.com/eliteGoblin/focusd/actor/internal/policy"
	"github.com/eliteGoblin/focusd/actor/internal/testutil"
	"github.com/eliteGoblin/focusd/actor/internal/usecase"
	"github.com/eliteGoblin/focusd/actor/test/fixtures"
)

var _ = Describe("Actor", func() {
	var (
		homeDir   string
		dataDir   string
		store     *infra.SQLTrackerStore
		clock     *testutil.FakeClock
		prompter  *testutil.Prompter
		processes domain.ProcessManager
		ctx       context.Context
	)

	newActor := func(set policy.Set) *usecase.Actor {
		deps := plugin.Deps{
			Processes:   processes,
			FileSystem:  infra.NewPathsAt(homeDir),
			Windows:     &testutil.Windows{},
			Multiplexer: &testutil.Multiplexer{},
			Notifier:    &testutil.Notifier{},
			Prompter:    prompter,
			Commands:    &testutil.Commands{},
			Store:       store,
			Clock:       clock,
			PushTimeout: time.Second,
		}
		actor, err := usecase.NewActor(plugin.Default, set, deps, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		return actor
	}

	BeforeEach(func() {
		var err error
		homeDir = GinkgoT().TempDir()
		dataDir = GinkgoT().TempDir()

		store, err = infra.OpenTrackerStore(dataDir, false)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = store.Close() })

		clock = testutil.NewFakeClock(time.Date(2026, 10, 18, 21, 0, 0, 0, time.Local))
		prompter = &testutil.Prompter{}
		processes = infra.NewProcessManager()
		ctx = context.Background()
	})

	Describe("blocklist rules", func() {
		It("deletes a preset's install from the home directory", func() {
			steam := fixtures.NewFakeSteamStructure(homeDir)
			Expect(steam.Create()).To(Succeed())
			Expect(steam.Dota2Exists()).To(BeTrue())

			actor := newActor(policy.Set{
				Blocklists: []policy.BlocklistSpec{{Preset: "dota2"}},
			})
			result := actor.Tick(ctx)

			Expect(result.Failed()).To(BeEmpty())
			Expect(steam.Dota2Exists()).To(BeFalse())
			Expect(steam.SteamRootExists()).To(BeTrue())
		})

		It("deletes everything the steam preset names, globs included", func() {
			steam := fixtures.NewFakeSteamStructure(homeDir)
			Expect(steam.Create()).To(Succeed())

			actor := newActor(policy.Set{
				Blocklists: []policy.BlocklistSpec{{Preset: "steam"}},
			})
			actor.Tick(ctx)

			Expect(steam.Exists()).To(BeFalse())
		})

		It("kills a matching process over consecutive ticks", func() {
			sleepPath, err := exec.LookPath("sleep")
			if err != nil {
				Skip("sleep not available")
			}
			data, err := os.ReadFile(sleepPath)
			Expect(err).NotTo(HaveOccurred())

			// A uniquely named copy, so no unrelated process matches
			binary := filepath.Join(GinkgoT().TempDir(), "itestsleeper")
			Expect(os.WriteFile(binary, data, 0o755)).To(Succeed())

			cmd := exec.Command(binary, "300")
			Expect(cmd.Start()).To(Succeed())
			exited := make(chan struct{})
			go func() {
				_ = cmd.Wait()
				close(exited)
			}()
			DeferCleanup(func() { _ = cmd.Process.Kill() })

			actor := newActor(policy.Set{
				Blocklists: []policy.BlocklistSpec{{Name: "sleeper", Processes: []string{"itestsleeper"}}},
			})

			Eventually(func() bool {
				actor.Tick(ctx)
				select {
				case <-exited:
					return true
				default:
					return false
				}
			}).WithTimeout(10 * time.Second).WithPolling(50 * time.Millisecond).Should(BeTrue())
		})
	})

	Describe("trackers", func() {
		It("records the answer once per day in the SQL store", func() {
			prompter.Answer = func(q testutil.Question) (any, error) { return true, nil }

			actor := newActor(policy.Set{
				Trackers: []policy.TrackerSpec{{Name: "workout", Kind: policy.TrackerYesNo, Availability: "20:00"}},
			})

			Eventually(func() (*domain.TrackerRecord, error) {
				actor.Tick(ctx)
				return store.Get("workout", "2026-10-18")
			}).WithTimeout(5 * time.Second).WithPolling(20 * time.Millisecond).ShouldNot(BeNil())

			for i := 0; i < 5; i++ {
				actor.Tick(ctx)
			}
			Expect(prompter.Questions()).To(HaveLen(1))

			rec, err := store.Get("workout", "2026-10-18")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Value).To(Equal("Yes"))
		})

		It("keeps records across reopening the store", func() {
			Expect(store.Record(domain.TrackerRecord{Tracker: "weight", Day: "2026-10-18", Value: "70.5"})).To(Succeed())
			Expect(store.Close()).To(Succeed())

			reopened, err := infra.OpenTrackerStore(dataDir, false)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			records, err := reopened.List("weight")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].Value).To(Equal("70.5"))
		})
	})

	Describe("watcher", func() {
		It("ticks and reports itself alive through the store", func() {
			actor := newActor(policy.Set{})
			d := domain.Daemon{PID: os.Getpid(), StartedAt: clock.Now(), Version: "itest"}
			w := daemon.NewWatcher(daemon.WatcherConfig{
				TickInterval:      10 * time.Millisecond,
				HeartbeatInterval: 10 * time.Millisecond,
			}, actor, store, clock, d, zap.NewNop())

			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- w.Run(runCtx) }()

			Eventually(func() bool {
				_, alive, err := daemon.Alive(store, processes, clock.Now(), time.Second)
				return err == nil && alive
			}).WithTimeout(5 * time.Second).Should(BeTrue())

			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
