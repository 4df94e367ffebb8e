package grimoire

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"github.com/mielalabs/mpl-magick/mpl"
)

var errProcessesDisabled = errors.New("process summoning is disabled")

type daemon struct {
	cmd   *exec.Cmd
	limit mpl.Value
	done  chan struct{}
}

// daemonTable tracks processes spawned by solomonic.summon, keyed by pid.
type daemonTable struct {
	mu      sync.Mutex
	daemons map[int]*daemon
}

func newDaemonTable() *daemonTable {
	return &daemonTable{daemons: make(map[int]*daemon)}
}

func (t *daemonTable) spawn(command string) (int, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return 0, errors.New("empty command")
	}
	cmd := exec.Command(fields[0], fields[1:]...)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	d := &daemon{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(d.done)
	}()

	pid := cmd.Process.Pid
	t.mu.Lock()
	t.daemons[pid] = d
	t.mu.Unlock()
	return pid, nil
}

func (t *daemonTable) bind(pid int, limit mpl.Value) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.daemons[pid]
	if !ok {
		return false
	}
	d.limit = limit
	return true
}

func (t *daemonTable) banish(pid int) bool {
	t.mu.Lock()
	d, ok := t.daemons[pid]
	delete(t.daemons, pid)
	t.mu.Unlock()
	if !ok {
		return false
	}
	_ = d.cmd.Process.Kill()
	<-d.done
	return true
}

func (t *daemonTable) banishAll() error {
	t.mu.Lock()
	pids := make([]int, 0, len(t.daemons))
	for pid := range t.daemons {
		pids = append(pids, pid)
	}
	t.mu.Unlock()
	for _, pid := range pids {
		t.banish(pid)
	}
	return nil
}

func (r *Registry) solomonicModule() Module {
	return Module{
		Name: "solomonic",
		Doc:  "daemons: spawn, bind and terminate host processes",
		Functions: []Function{
			{Name: "summon", Params: []string{"command"}, Required: 1, Doc: "spawn a process and return its pid (-1 on failure)", Handler: r.summonDaemon},
			{Name: "bind", Params: []string{"pid", "limit"}, Required: 1, Doc: "record a resource limit for a summoned daemon", Handler: r.bindDaemon},
			{Name: "banish", Params: []string{"pid"}, Required: 1, Doc: "terminate a summoned daemon", Handler: r.banishDaemon},
		},
	}
}

func (r *Registry) summonDaemon(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	if !r.opts.AllowProcesses {
		return mpl.NewVoid(), errProcessesDisabled
	}
	command := args[0].String()
	pid, err := r.daemons.spawn(command)
	if err != nil {
		r.logger.Warn("summoning failed", "command", command, "err", err)
		return mpl.NewInt(-1), nil
	}
	r.logger.Info("daemon summoned", "command", command, "pid", pid)
	return mpl.NewInt(int64(pid)), nil
}

func (r *Registry) bindDaemon(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	pid, _ := toInt(args[0])
	limit := mpl.NewVoid()
	if len(args) > 1 {
		limit = args[1]
	}
	ok := r.daemons.bind(int(pid), limit)
	if ok {
		r.logger.Info("daemon bound", "pid", pid, "limit", limit.String())
	}
	return mpl.NewBool(ok), nil
}

func (r *Registry) banishDaemon(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	pid, _ := toInt(args[0])
	ok := r.daemons.banish(int(pid))
	if ok {
		r.logger.Info("daemon banished", "pid", pid)
	}
	return mpl.NewBool(ok), nil
}
