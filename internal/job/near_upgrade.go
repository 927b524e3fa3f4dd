// Package job runs periodic background work for the club.
package job

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"prive-club/internal/notifier"
	"prive-club/internal/service"
)

// NearUpgradeJob periodically scans the roster for members close to a tier
// upgrade and sends the staff channel a digest, so the front desk can nudge
// them on their next visit.
type NearUpgradeJob struct {
	membership *service.MembershipService
	notifier   notifier.Notifier
	fraction   float64
	interval   time.Duration
	stop       chan struct{}
	done       chan struct{}
}

// NewNearUpgradeJob creates the job. fraction is the share of the next tier
// threshold that counts as "near".
func NewNearUpgradeJob(membership *service.MembershipService, n notifier.Notifier, fraction float64, interval time.Duration) *NearUpgradeJob {
	return &NearUpgradeJob{
		membership: membership,
		notifier:   n,
		fraction:   fraction,
		interval:   interval,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the scan loop in a goroutine.
func (j *NearUpgradeJob) Start() {
	go j.run()
	log.Info().
		Dur("interval", j.interval).
		Float64("fraction", j.fraction).
		Msg("Near-upgrade digest job started")
}

// Stop halts the loop and waits for the current scan to finish.
func (j *NearUpgradeJob) Stop() {
	close(j.stop)
	<-j.done
	log.Info().Msg("Near-upgrade digest job stopped")
}

func (j *NearUpgradeJob) run() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.scan()
		case <-j.stop:
			return
		}
	}
}

func (j *NearUpgradeJob) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	members, err := j.membership.MembersNearUpgrade(ctx, j.fraction)
	if err != nil {
		log.Error().Err(err).Msg("Near-upgrade scan failed")
		return
	}
	if len(members) == 0 {
		return
	}

	log.Info().Int("count", len(members)).Msg("Members near a tier upgrade")
	if err := j.notifier.NearUpgradeDigest(ctx, members); err != nil {
		log.Error().Err(err).Msg("Near-upgrade digest notification failed")
	}
}
