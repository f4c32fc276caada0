// Package sched implements a cooperative, stackless task scheduler for
// single-threaded loops.
//
// A Scheduler owns a fixed table of task slots. Slot 0 is the idle task,
// which only runs when nothing else is runnable. Each activation of a task
// runs its entry function until the function returns; a task suspends by
// recording a resume marker and returning early. The next activation
// dispatches on that marker and continues right after the suspension point.
//
// Task bodies are written as a switch over the marker returned by
// Ctx.Enter:
//
//	func blink(c *sched.Ctx, arg any) {
//		led := arg.(*LED)
//		switch c.Enter() {
//		case 0:
//			led.On()
//			if c.Sleep(1, 500) {
//				return
//			}
//			fallthrough
//		case 1:
//			led.Off()
//			if c.Sleep(2, 500) {
//				return
//			}
//		case 2:
//		}
//	}
//
// Reaching the end of the body resets the marker, so the next activation
// starts again at case 0.
//
// Nothing in this package is safe for concurrent use. Run independent
// schedulers on separate goroutines instead of sharing one.
package sched
