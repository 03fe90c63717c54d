// Package cycle implements the cooperative run-to-completion control loop
// a node runs on: a fixed-rate cycle of staged controllers plus background
// runners (e.g. the serial byte receiver) feeding it messages.
package cycle

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Loop runs registered controllers once per cycle, stage by stage.
type Loop struct {
	Interval time.Duration

	controllers [stageCount][]Controller

	runners []Runnable

	messages messageList
	lock     sync.Mutex

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to the loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtl struct {
	*Loop
}

type loopCycle struct {
	loopCtl
	ctx      context.Context
	time     time.Time
	stage    Stage
	messages messageList
}

type messageList struct {
	head *messageItem
	tail *messageItem
}

type messageItem struct {
	msg  Message
	next *messageItem
}

func (l *messageList) append(item *messageItem) {
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *messageList) splice(src *messageList) {
	l.head, l.tail, src.head = src.head, src.tail, nil
}

func (l *messageList) concat(lst *messageList) {
	if l.head == nil {
		l.head = lst.head
	} else {
		l.tail.next = lst.head
	}
	if lst.head != nil {
		l.tail = lst.tail
	}
}

var (
	loopCtxKey = &Loop{}
)

// LoopCtlFrom gets LoopControl from context. Background runners spawned by
// the loop use this to post messages back into the cycle.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// DefaultInterval is the cycle interval when none is configured.
const DefaultInterval = 50 * time.Millisecond

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// At registers controllers to run at the given stage.
func (l *Loop) At(stage Stage, ctls ...Controller) *Loop {
	l.controllers[stage] = append(l.controllers[stage], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementations to be spawned alongside the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable. Each tick executes one full cycle; a cycle never
// blocks on I/O and always runs every stage to completion.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}

	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, &loopCtl{l}))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	timer := time.Tick(interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer:
			l.RunCycle(ctx)
		case <-l.wakeUpCh:
			l.RunCycle(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(context.TODO()); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.append(&messageItem{msg: msg})
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	if l.wakeUpCh == nil {
		return
	}
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// RunCycle executes one full cycle immediately. Exposed for tests and for
// callers driving the loop with their own scheduler.
func (l *Loop) RunCycle(ctx context.Context) {
	cc := &loopCycle{loopCtl: loopCtl{l}, time: time.Now()}
	l.lock.Lock()
	cc.messages.splice(&l.messages)
	l.lock.Unlock()
	cc.ctx = context.WithValue(ctx, loopCtxKey, cc)
	for s := Stage(0); s < stageCount; s++ {
		cc.stage = s
		for _, ctl := range l.controllers[s] {
			if err := ctl.Control(cc); err != nil {
				glog.Errorf("controller error at stage %d: %v", s, err)
			}
		}
	}
}

func (c *loopCycle) Context() context.Context {
	return c.ctx
}

func (c *loopCycle) Time() time.Time {
	return c.time
}

func (c *loopCycle) Stage() Stage {
	return c.stage
}

func (c *loopCycle) Messages() MessageStore {
	return c
}

// MessageStore implementation

type messageContext struct {
	cycle *loopCycle
	item  *messageItem
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message     { return c.item.msg }
func (c *messageContext) MessageTaken()               { c.taken = true }
func (c *messageContext) StopProcessing()             { c.stop = true }
func (c *messageContext) AddMessages(msgs ...Message) { c.cycle.AddMessages(msgs...) }

func (c *loopCycle) ProcessMessages(proc MessageProcessor) {
	var msgs, remains messageList
	msgs.splice(&c.messages)
	for msgs.head != nil {
		mctx := &messageContext{cycle: c, item: msgs.head}
		msgs.head = msgs.head.next
		mctx.item.next = nil
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains.append(mctx.item)
		}
		if mctx.stop {
			remains.concat(&msgs)
		}
	}
	remains.concat(&c.messages)
	c.messages = remains
}

func (c *loopCycle) AddMessages(msgs ...Message) {
	for _, msg := range msgs {
		c.messages.append(&messageItem{msg: msg})
	}
}
