package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Werneck0live/cadastro-clientes/internal/models"
)

// recordDoc guarda os campos no mesmo formato texto do CSV,
// assim a carga passa pelo mesmo decodificador.
type recordDoc struct {
	ID             string    `bson:"_id"`
	Seq            int64     `bson:"seq"`
	Nome           string    `bson:"nome"`
	Telefone       string    `bson:"telefone"`
	CPF            string    `bson:"cpf"`
	CNPJ           string    `bson:"cnpj"`
	DTContrato     string    `bson:"dt_contrato"`
	TipoDeProcesso string    `bson:"tipo_de_processo"`
	Orgao          string    `bson:"orgao"`
	AutoInfracao   string    `bson:"auto_infracao"`
	NumeroProcesso string    `bson:"numero_processo"`
	Pagamento      string    `bson:"pagamento"`
	Valor          string    `bson:"valor"`
	DTEntradaCT    string    `bson:"dt_entrada_ct"`
	DTEfeitoSusp   string    `bson:"dt_efeito_susp"`
	Status         string    `bson:"status"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toDoc(r models.Record) recordDoc {
	c := r.Row()
	return recordDoc{
		ID:             r.ID,
		Nome:           c[models.ColName],
		Telefone:       c[models.ColPhone],
		CPF:            c[models.ColCPF],
		CNPJ:           c[models.ColCNPJ],
		DTContrato:     c[models.ColContractDate],
		TipoDeProcesso: c[models.ColProcessType],
		Orgao:          c[models.ColAuthority],
		AutoInfracao:   c[models.ColInfractionCode],
		NumeroProcesso: c[models.ColProcessNumber],
		Pagamento:      c[models.ColPayment],
		Valor:          c[models.ColAmount],
		DTEntradaCT:    c[models.ColIntakeDate],
		DTEfeitoSusp:   c[models.ColSuspensiveDate],
		Status:         c[models.ColStatus],
	}
}

func (d recordDoc) record() models.Record {
	r := models.DecodeRow([]string{
		d.Nome, d.Telefone, d.CPF, d.CNPJ, d.DTContrato, d.TipoDeProcesso, d.Orgao,
		d.AutoInfracao, d.NumeroProcesso, d.Pagamento, d.Valor, d.DTEntradaCT, d.DTEfeitoSusp, d.Status,
	})
	r.ID = d.ID
	return r
}

// MongoStore implements Store over a "records" collection.
type MongoStore struct {
	coll          *mongo.Collection
	skipMalformed bool
	log           *slog.Logger
}

func NewMongoStore(db *mongo.Database, skipMalformed bool, log *slog.Logger) *MongoStore {
	if log == nil {
		log = slog.Default()
	}
	return &MongoStore{
		coll:          db.Collection("records"),
		skipMalformed: skipMalformed,
		log:           log.With("cmp", "repository.mongo"),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}, Options: options.Index().SetName("seq")},
		{Keys: bson.D{{Key: "nome", Value: 1}}, Options: options.Index().SetName("nome")},
	})
	return err
}

func (s *MongoStore) LoadAll(ctx context.Context) (models.RecordSet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return models.RecordSet{}, err
	}
	defer cur.Close(ctx)

	set := models.RecordSet{Records: []models.Record{}}
	for cur.Next(ctx) {
		var d recordDoc
		if err := cur.Decode(&d); err != nil {
			set.Skipped++
			s.log.Warn("row_skipped", "err", err)
			continue
		}
		r := d.record()
		if s.skipMalformed && r.Malformed() {
			set.Skipped++
			s.log.Warn("row_skipped", "id", d.ID, "issues", len(r.Issues))
			continue
		}
		set.Records = append(set.Records, r)
	}
	return set, cur.Err()
}

func (s *MongoStore) Append(ctx context.Context, r *models.Record) error {
	if err := ValidateRequired(*r); err != nil {
		return err
	}
	d := toDoc(*r)
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	d.Seq = d.CreatedAt.UnixNano()

	if _, err := s.coll.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	r.ID = d.ID
	s.log.Info("record_appended", "id", d.ID, "nome", d.Nome)
	return nil
}

func (s *MongoStore) UpdateStatuses(ctx context.Context, changes map[string]models.Status) error {
	if len(changes) == 0 {
		return nil
	}
	if err := s.ensureExist(ctx, keys(changes)); err != nil {
		return err
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(changes))
	for id, st := range changes {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"status": string(st), "updated_at": now}}))
	}
	if _, err := s.coll.BulkWrite(ctx, writes); err != nil {
		return fmt.Errorf("update statuses: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, ids ...string) ([]models.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("delete records: %w", err)
	}
	var docs []recordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("delete records: %w", err)
	}
	found := make(map[string]bool, len(docs))
	removed := make([]models.Record, 0, len(docs))
	for _, d := range docs {
		found[d.ID] = true
		removed = append(removed, d.record())
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return nil, fmt.Errorf("delete records: %w", err)
	}
	return removed, nil
}

func (s *MongoStore) ensureExist(ctx context.Context, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var d struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&d); err != nil {
			return err
		}
		delete(seen, d.ID)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	for id := range seen {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func keys(m map[string]models.Status) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
