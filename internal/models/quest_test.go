package models

import "testing"

func TestQuestStatusTransitions(t *testing.T) {
	allowed := map[QuestStatus]QuestStatus{
		QuestStatusNotStarted: QuestStatusInProgress,
		QuestStatusInProgress: QuestStatusCompleted,
		QuestStatusCompleted:  QuestStatusClaimed,
	}

	statuses := []QuestStatus{QuestStatusNotStarted, QuestStatusInProgress, QuestStatusCompleted, QuestStatusClaimed}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from] == to
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestQuestStatusClaimedIsTerminal(t *testing.T) {
	for _, to := range []QuestStatus{QuestStatusNotStarted, QuestStatusInProgress, QuestStatusCompleted, QuestStatusClaimed} {
		if QuestStatusClaimed.CanTransitionTo(to) {
			t.Errorf("claimed must not transition to %s", to)
		}
	}
}
