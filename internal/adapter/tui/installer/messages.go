package installer

// drainMsg asks Update to run the dispatcher queue.
type drainMsg struct{}

// startMsg makes the first transition once the program is running.
type startMsg struct{}
