package testkit

import (
	"testing"

	"cosched/internal/sched"
)

func TestCheckSnapshot(t *testing.T) {
	good := []sched.TaskInfo{
		{Handle: 0, Name: "idle", State: sched.StateReady},
		{Handle: 1, Name: "a", State: sched.StateWaiting, Timeout: 5, HoldsLock: true},
		{Handle: 2, Name: "b", State: sched.StateBlocked},
	}
	if err := CheckSnapshot(good); err != nil {
		t.Fatalf("CheckSnapshot(good) = %v", err)
	}

	cases := []struct {
		name  string
		patch func([]sched.TaskInfo)
	}{
		{"running", func(in []sched.TaskInfo) { in[2].State = sched.StateRunning }},
		{"stray timeout", func(in []sched.TaskInfo) { in[2].Timeout = 3 }},
		{"two holders", func(in []sched.TaskInfo) { in[2].HoldsLock = true }},
		{"handle gap", func(in []sched.TaskInfo) { in[2].Handle = 5 }},
		{"unused slot", func(in []sched.TaskInfo) { in[1].State = sched.StateNone }},
	}
	for _, tc := range cases {
		infos := append([]sched.TaskInfo(nil), good...)
		tc.patch(infos)
		if err := CheckSnapshot(infos); err == nil {
			t.Fatalf("%s: CheckSnapshot accepted a broken snapshot", tc.name)
		}
	}
	if err := CheckSnapshot(nil); err == nil {
		t.Fatalf("CheckSnapshot(nil) = nil, want error")
	}
}
