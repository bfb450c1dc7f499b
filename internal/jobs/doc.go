// Package jobs implements background processing for Nonagon.
//
// Jobs run independently of command handling and are owned by the
// nonagon process.
//
// # Quest Lifecycle
//
// QuestLifecycleProcessor closes signups for announced quests whose start
// time has passed. Each run lists the guilds holding quests and closes
// them concurrently:
//
//	proc := jobs.NewQuestLifecycleProcessor(jobs.QuestLifecycleConfig{
//	    Guilds:   questRepo,
//	    Quests:   questService,
//	    Interval: time.Minute,
//	    Logger:   logger,
//	})
//	proc.Start()
//	defer proc.Stop()
//
// # Error Handling
//
// A failing guild is logged and does not stop the others. RunOnce returns
// the joined guild errors alongside the number of quests closed.
package jobs
