// Package snapshot persists a node's registry as wire text in SQLite.
//
// Payloads are zstd-compressed and identified by the BLAKE3 digest of the
// uncompressed text; saving the same text twice in a row stores one row.
// The daemon restores the newest snapshot at startup and a Scheduler keeps
// saving on an interval:
//
//	repo := snapshot.NewRepository(db.DB)
//	if s, err := repo.Latest(ctx, node); err == nil {
//	    guard.Do(func(r *namespace.Registry) error { _, err := r.Parse(s.Text); return err })
//	}
//	sched := snapshot.NewScheduler(repo, node, source, time.Minute, 24*time.Hour)
//	sched.Start(ctx)
//	defer sched.Stop(context.Background())
package snapshot
