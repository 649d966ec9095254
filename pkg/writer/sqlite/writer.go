// Package sqlite writes quantified batches to a SQLite exchange database
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ChrisMcGann/ChromQuant/pkg/export"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/guregu/null.v3"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Schema version stored in HeaderTable
	schemaVersion = 1
)

// Writer handles writing documents to SQLite database files
type Writer struct {
	db          *sql.DB
	outputPath  string
	speciesStmt *sql.Stmt
	seriesStmt  *sql.Stmt
	speciesID   int
	documents   int
	description string
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		speciesID:  1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		Description TEXT,
		DocumentCount INTEGER
	);

	CREATE TABLE IF NOT EXISTS ConditionsTable (
		DocumentId TEXT PRIMARY KEY,
		Name TEXT,
		Strategy TEXT,
		pH DOUBLE,
		Temperature DOUBLE,
		TemperatureUnit TEXT,
		TimeUnit TEXT,
		Warnings TEXT
	);

	CREATE TABLE IF NOT EXISTS SpeciesTable (
		SpeciesId INTEGER PRIMARY KEY,
		DocumentId TEXT REFERENCES ConditionsTable(DocumentId),
		Id TEXT,
		Name TEXT,
		Kind TEXT,
		DataType TEXT,
		InitConc DOUBLE,
		ConcUnit TEXT,
		PubChemId INTEGER,
		InternalStandard BOOL,
		RetentionTime DOUBLE,
		Sequence TEXT,
		MolecularWeight DOUBLE,
		Organism TEXT,
		OrganismTaxId TEXT,
		Constant BOOL,
		CalibrationSlope DOUBLE,
		CalibrationIntercept DOUBLE,
		CalibrationR DOUBLE,
		CalibrationUnit TEXT,
		blobConcentrations BLOB,
		blobSignals BLOB
	);

	CREATE TABLE IF NOT EXISTS SeriesTable (
		DocumentId TEXT REFERENCES ConditionsTable(DocumentId),
		MoleculeId TEXT,
		DataType TEXT,
		Unit TEXT,
		PointIndex INTEGER,
		MeasurementId TEXT,
		X DOUBLE,
		Value DOUBLE
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.speciesStmt, err = w.db.Prepare(`
		INSERT INTO SpeciesTable (
			SpeciesId, DocumentId, Id, Name, Kind, DataType, InitConc, ConcUnit,
			PubChemId, InternalStandard, RetentionTime, Sequence, MolecularWeight,
			Organism, OrganismTaxId, Constant, CalibrationSlope, CalibrationIntercept,
			CalibrationR, CalibrationUnit, blobConcentrations, blobSignals
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare species statement: %w", err)
	}

	w.seriesStmt, err = w.db.Prepare(`
		INSERT INTO SeriesTable (
			DocumentId, MoleculeId, DataType, Unit, PointIndex, MeasurementId, X, Value
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare series statement: %w", err)
	}

	return nil
}

// SetDescription sets the description stored in the header
func (w *Writer) SetDescription(desc string) {
	w.description = desc
}

// Write writes a document: its conditions, species and series
func (w *Writer) Write(doc *export.Document) error {
	warnings := ""
	for i, msg := range doc.Warnings {
		if i > 0 {
			warnings += "\n"
		}
		warnings += msg
	}

	_, err := w.db.Exec(`
		INSERT INTO ConditionsTable (DocumentId, Name, Strategy, pH, Temperature, TemperatureUnit, TimeUnit, Warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Name, doc.Strategy,
		doc.Conditions.PH, doc.Conditions.Temperature,
		doc.Conditions.TemperatureUnit.Name, doc.Conditions.TimeUnit.Name,
		null.NewString(warnings, warnings != ""))
	if err != nil {
		return fmt.Errorf("failed to insert conditions: %w", err)
	}

	for _, rec := range doc.Species {
		if err := w.writeSpecies(doc.ID, rec); err != nil {
			return err
		}
	}

	for _, s := range doc.Series {
		for i, p := range s.Points {
			_, err := w.seriesStmt.Exec(
				doc.ID,             // DocumentId
				s.MoleculeID,       // MoleculeId
				string(s.DataType), // DataType
				s.Unit.Name,        // Unit
				i,                  // PointIndex
				p.MeasurementID,    // MeasurementId
				p.X,                // X
				p.Value,            // Value
			)
			if err != nil {
				return fmt.Errorf("failed to insert series point of %s: %w", s.MoleculeID, err)
			}
		}
	}

	w.documents++
	return nil
}

func (w *Writer) writeSpecies(docID string, rec export.SpeciesRecord) error {
	var (
		slope, intercept, r null.Float
		calUnit             null.String
		concBlob, sigBlob   []byte
	)
	if cal := rec.Calibration; cal != nil {
		slope = null.FloatFrom(cal.Slope)
		intercept = null.FloatFrom(cal.Intercept)
		r = null.FloatFrom(cal.R)
		calUnit = null.NewString(cal.ConcUnit.Name, cal.ConcUnit.Name != "")
		concBlob = encodeFloat64s(cal.Concentrations)
		sigBlob = encodeFloat64s(cal.Signals)
	}

	concUnit := null.NewString(rec.ConcUnit, rec.ConcUnit != "")
	pubChem := null.NewInt(int64(rec.PubChemCID), rec.PubChemCID != 0)
	sequence := null.NewString(rec.Sequence, rec.Sequence != "")

	_, err := w.speciesStmt.Exec(
		w.speciesID,                            // SpeciesId
		docID,                                  // DocumentId
		rec.ID,                                 // Id
		rec.Name,                               // Name
		rec.Kind.String(),                      // Kind
		string(rec.DataType),                   // DataType
		null.FloatFromPtr(rec.InitConc),        // InitConc
		concUnit,                               // ConcUnit
		pubChem,                                // PubChemId
		rec.InternalStandard,                   // InternalStandard
		null.FloatFromPtr(rec.RetentionTime),   // RetentionTime
		sequence,                               // Sequence
		null.FloatFromPtr(rec.MolecularWeight), // MolecularWeight
		rec.Organism,                           // Organism
		rec.OrganismTaxID,                      // OrganismTaxId
		rec.Constant,                           // Constant
		slope,                                  // CalibrationSlope
		intercept,                              // CalibrationIntercept
		r,                                      // CalibrationR
		calUnit,                                // CalibrationUnit
		concBlob,                               // blobConcentrations
		sigBlob,                                // blobSignals
	)
	if err != nil {
		return fmt.Errorf("failed to insert species %s: %w", rec.ID, err)
	}

	w.speciesID++
	return nil
}

// encodeFloat64s encodes values as a little-endian float64 blob
func encodeFloat64s(values []float64) []byte {
	if len(values) == 0 {
		return nil
	}
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeFloat64s decodes a blob written by the writer
func DecodeFloat64s(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return out, nil
}

// Finalize writes the header table and closes the database
func (w *Writer) Finalize() error {
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, Description, DocumentCount)
		VALUES (?, ?, ?, ?)
	`, schemaVersion, time.Now().Format(headerDateFormat), w.description, w.documents)
	if err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}

	// Close prepared statements
	if w.speciesStmt != nil {
		w.speciesStmt.Close()
	}
	if w.seriesStmt != nil {
		w.seriesStmt.Close()
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
