// Package ecoledirecte implements the EcoleDirecte backend adapter. The
// gateway wraps every payload in a code/token/data envelope and reports
// numeric grades as comma-decimal strings ("15,5"), which the mapper
// normalizes before anything else touches them.
package ecoledirecte

// envelopeDTO is the response wrapper common to every EcoleDirecte call.
type envelopeDTO[T any] struct {
	Code    int    `json:"code"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type loginDataDTO struct {
	Accounts []struct {
		ID         int64  `json:"id"`
		FirstName  string `json:"prenom"`
		LastName   string `json:"nom"`
		SchoolName string `json:"nomEtablissement"`
	} `json:"accounts"`
}

type periodDTO struct {
	Code      string `json:"codePeriode"`
	Name      string `json:"periode"`
	StartDate string `json:"dateDebut"`
	EndDate   string `json:"dateFin"`
	IsDefault bool   `json:"periodeEnCours"`
}

// gradeDTO is one EcoleDirecte grade. All numeric fields arrive as
// comma-decimal strings; empty or non-numeric strings mark a slot without a
// usable value.
type gradeDTO struct {
	ID          int64  `json:"id"`
	SubjectCode string `json:"codeMatiere"`
	SubjectName string `json:"libelleMatiere"`
	Comment     string `json:"devoir"`
	PeriodCode  string `json:"codePeriode"`
	Date        string `json:"date"`
	Value       string `json:"valeur"`
	OutOf       string `json:"noteSur"`
	Average     string `json:"moyenneClasse"`
	Min         string `json:"minClasse"`
	Max         string `json:"maxClasse"`
	Coefficient string `json:"coef"`

	// NotSignificant marks grades excluded from averages (absences,
	// exemptions).
	NotSignificant bool `json:"nonSignificatif"`
	IsOptional     bool `json:"isFacultatif"`
}

type gradesDataDTO struct {
	Periods []periodDTO `json:"periodes"`
	Grades  []gradeDTO  `json:"notes"`
}

type absenceDTO struct {
	ID           int64  `json:"id"`
	Kind         string `json:"typeElement"`
	DisplayDate  string `json:"displayDate"`
	Date         string `json:"date"`
	Justified    bool   `json:"justifie"`
	Reason       string `json:"motif"`
	Duration     string `json:"libelle"`
	MinutesAway  int    `json:"minutesAway"`
	SubjectLabel string `json:"matiere"`
}

type attendanceDataDTO struct {
	Absences []absenceDTO `json:"absencesRetards"`
	Sanction []absenceDTO `json:"sanctionsEncouragements"`
}

type homeworkItemDTO struct {
	ID          int64  `json:"idDevoir"`
	SubjectCode string `json:"codeMatiere"`
	SubjectName string `json:"matiere"`
	Done        bool   `json:"effectue"`
	Online      bool   `json:"rendreEnLigne"`
	Content     string `json:"contenu"`
}

// homeworkDataDTO maps due dates ("2025-01-14") to the assignments due that
// day.
type homeworkDataDTO map[string][]homeworkItemDTO

type lessonDTO struct {
	ID          int64  `json:"id"`
	SubjectCode string `json:"codeMatiere"`
	SubjectName string `json:"matiere"`
	Teacher     string `json:"prof"`
	Room        string `json:"salle"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsCancelled bool   `json:"isAnnule"`
	IsModified  bool   `json:"isModifie"`
	Text        string `json:"texte"`
}
