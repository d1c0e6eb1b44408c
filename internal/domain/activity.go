package domain

// Activity is an extracurricular offering students can sign up for.
// Participants are kept in signup order.
type Activity struct {
	Name            string
	Description     string
	Schedule        string
	MaxParticipants int
	Participants    []string
}

// Clone returns a copy that shares no state with the receiver.
func (a Activity) Clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

// HasParticipant reports whether email is already registered.
func (a Activity) HasParticipant(email string) bool {
	return a.indexOf(email) >= 0
}

// IsFull reports whether the roster has reached max_participants.
func (a Activity) IsFull() bool {
	return a.MaxParticipants > 0 && len(a.Participants) >= a.MaxParticipants
}

func (a Activity) indexOf(email string) int {
	for i, p := range a.Participants {
		if p == email {
			return i
		}
	}
	return -1
}

// AddParticipant appends email to the roster. When enforceCapacity is set a full
// roster is rejected; otherwise max_participants is informational only.
func (a *Activity) AddParticipant(email string, enforceCapacity bool) error {
	if a.HasParticipant(email) {
		return &ParticipationError{Activity: a.Name, Email: email, Err: ErrAlreadySignedUp}
	}
	if enforceCapacity && a.IsFull() {
		return &ParticipationError{Activity: a.Name, Email: email, Err: ErrActivityFull}
	}
	a.Participants = append(a.Participants, email)
	return nil
}

// RemoveParticipant drops email from the roster, keeping the order of the rest.
func (a *Activity) RemoveParticipant(email string) error {
	idx := a.indexOf(email)
	if idx < 0 {
		return &ParticipationError{Activity: a.Name, Email: email, Err: ErrNotSignedUp}
	}
	a.Participants = append(a.Participants[:idx], a.Participants[idx+1:]...)
	return nil
}
