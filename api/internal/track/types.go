package track

import "time"

// Track is a generated learning path. It owns its checkpoints and flashcards.
// MongoID mirrors ID so documents keep the `_id` + `id` shape clients read.
type Track struct {
	MongoID       string       `json:"_id" bson:"_id"`
	ID            string       `json:"id" bson:"id"`
	Title         string       `json:"title" bson:"title"`
	Description   string       `json:"description" bson:"description"`
	Difficulty    string       `json:"difficulty" bson:"difficulty"`
	Timeframe     string       `json:"timeframe" bson:"timeframe"`
	Checkpoints   []Checkpoint `json:"checkpoints" bson:"checkpoints"`
	Flashcards    []Flashcard  `json:"flashcards" bson:"flashcards"`
	IsUserCreated bool         `json:"isUserCreated" bson:"isUserCreated"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
}

// Checkpoint is one step of a track. CreatorName is only set when VideoURL is.
type Checkpoint struct {
	CheckpointID int      `json:"checkpointId" bson:"checkpointId"`
	Title        string   `json:"title" bson:"title"`
	Description  string   `json:"description" bson:"description"`
	VideoURL     *string  `json:"videoUrl" bson:"videoUrl"`
	CreatorName  *string  `json:"creatorName" bson:"creatorName"`
	Outcomes     []string `json:"outcomes" bson:"outcomes"`
}

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

type Flashcard struct {
	Question   string     `json:"question" bson:"question"`
	Answer     string     `json:"answer" bson:"answer"`
	Difficulty Difficulty `json:"difficulty" bson:"difficulty"`
}

// AssessmentResult is returned per request and never stored.
type AssessmentResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

const (
	MinScore = 0
	MaxScore = 10
)
