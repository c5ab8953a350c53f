package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

type (
	ApplicantID string
	VoterID     string
	VoteID      string
)

type Faculty string

const (
	FacultyWFiIS Faculty = "WFiIS"
	FacultyWiEIT Faculty = "WiEIT"
	FacultyWIMIP Faculty = "WIMIP"
)

var facultyNames = map[Faculty]string{
	FacultyWFiIS: "Wydział Fizyki i Informatyki Stosowanej",
	FacultyWiEIT: "Wydział Elektroniki i Telekomunikacji",
	FacultyWIMIP: "Wydział Inżynierii Metali i Informatyki Przemysłowej",
}

func (f Faculty) Valid() bool {
	_, ok := facultyNames[f]
	return ok
}

// FullName devolve o nome completo da faculdade ou vazio quando desconhecida.
func (f Faculty) FullName() string {
	return facultyNames[f]
}

type VoteType string

const (
	VoteYes VoteType = "YES"
	VoteNo  VoteType = "NO"
)

func (t VoteType) Valid() bool {
	return t == VoteYes || t == VoteNo
}

// ParseVoteType aceita "yes"/"no" em qualquer caixa, como os front ends antigos enviavam.
func ParseVoteType(raw string) (VoteType, error) {
	t := VoteType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", ErrInvalidVoteType
	}
	return t, nil
}

type Applicant struct {
	ID        ApplicantID `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Name      string      `gorm:"column:name;type:text;not null" json:"name"`
	Surname   string      `gorm:"column:surname;type:text;not null" json:"surname"`
	Age       int         `gorm:"column:age;not null" json:"age"`
	Faculty   Faculty     `gorm:"column:faculty;type:varchar(8);not null" json:"faculty"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime;index:idx_applicants_created_at" json:"-"`
	VoteCount *int64      `gorm:"-" json:"vote_count,omitempty"`
}

type Vote struct {
	ID          VoteID      `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Key         string      `gorm:"column:unique_key;type:char(64);not null;uniqueIndex:idx_votes_unique_key" json:"-"`
	VoterID     VoterID     `gorm:"column:voter_id;type:text;not null;index:idx_votes_voter" json:"voter_id"`
	ApplicantID ApplicantID `gorm:"column:applicant_id;type:char(36);not null;index:idx_votes_applicant_created_at,priority:1" json:"applicant_id"`
	Type        VoteType    `gorm:"column:vote_type;type:varchar(3);not null" json:"vote_type"`
	CreatedAt   time.Time   `gorm:"column:created_at;not null;index:idx_votes_applicant_created_at,priority:2" json:"created_at"`
}

// VoteKey deriva a chave de unicidade de um par (eleitor, candidato).
func VoteKey(voter VoterID, applicant ApplicantID) string {
	sum := sha256.Sum256([]byte(string(voter) + "\x00" + string(applicant)))
	return hex.EncodeToString(sum[:])
}

type VoteReceipt struct {
	VoteID      VoteID      `json:"vote_id"`
	VoterID     VoterID     `json:"voter_id"`
	ApplicantID ApplicantID `json:"applicant_id"`
	Type        VoteType    `json:"vote_type"`
	CreatedAt   time.Time   `json:"created_at"`
}

func ReceiptFor(v Vote) VoteReceipt {
	return VoteReceipt{
		VoteID:      v.ID,
		VoterID:     v.VoterID,
		ApplicantID: v.ApplicantID,
		Type:        v.Type,
		CreatedAt:   v.CreatedAt,
	}
}

// User é a identidade externa devolvida pelo provedor; este serviço só lê.
type User struct {
	ID          VoterID `json:"id"`
	DisplayName string  `json:"display_name"`
	Surname     string  `json:"surname"`
}

type ApplicantTally struct {
	ApplicantID ApplicantID `json:"applicant_id"`
	Total       int64       `json:"total"`
	Yes         int64       `json:"yes"`
	No          int64       `json:"no"`
}

func (Applicant) TableName() string { return "applicants" }

func (Vote) TableName() string { return "votes" }
