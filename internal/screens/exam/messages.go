package exam

import "time"

// timerTickMsg is sent every second while the exam timer runs.
type timerTickMsg time.Time

// explainPollMsg is sent while waiting for a tutor explanation.
type explainPollMsg struct{}
