package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"opinex/internal/domain/survey"
	"opinex/internal/platform/database"
)

type surveyDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	survey.Survey `bson:",inline"`
}

func (d *surveyDoc) toSurvey() survey.Survey {
	s := d.Survey
	s.ID = d.ID.Hex()
	if s.Voter == nil {
		s.Voter = []survey.Voter{}
	}
	if s.Comment == nil {
		s.Comment = []survey.Comment{}
	}
	if s.ReportedBy == nil {
		s.ReportedBy = []survey.Report{}
	}
	return s
}

type SurveyRepo struct {
	coll *mongo.Collection
}

func NewSurveyRepo(db *mongo.Database) *SurveyRepo {
	return &SurveyRepo{coll: db.Collection(database.SurveysCollection)}
}

func (r *SurveyRepo) Create(ctx context.Context, s *survey.Survey) (string, error) {
	res, err := r.coll.InsertOne(ctx, surveyDoc{Survey: *s})
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("mongo: unexpected inserted id type")
	}
	s.ID = oid.Hex()
	return s.ID, nil
}

func (r *SurveyRepo) GetByID(ctx context.Context, id string) (*survey.Survey, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, survey.ErrNotFound
	}
	var d surveyDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, survey.ErrNotFound
		}
		return nil, err
	}
	s := d.toSurvey()
	return &s, nil
}

func (r *SurveyRepo) ListByOwner(ctx context.Context, email string) ([]survey.Survey, error) {
	return r.find(ctx, bson.M{"surveyorEmail": email}, createdAsc())
}

func (r *SurveyRepo) List(ctx context.Context, status survey.Status) ([]survey.Survey, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, createdAsc())
}

func (r *SurveyRepo) Update(ctx context.Context, id string, input survey.UpdateInput) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return survey.ErrNotFound
	}

	set := bson.M{}
	setIf := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	setIf("title", input.Title)
	setIf("description", input.Description)
	setIf("category", input.Category)
	setIf("deadline", input.Deadline)
	setIf("questionTitle", input.QuestionTitle)
	setIf("questionDescription", input.QuestionDescription)
	if len(set) == 0 {
		return survey.ErrInvalidInput
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return survey.ErrNotFound
	}
	return nil
}

func (r *SurveyRepo) SetStatus(ctx context.Context, id string, from, to survey.Status, feedback *string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return survey.ErrNotFound
	}
	set := bson.M{"status": to}
	if feedback != nil {
		set["feedback"] = *feedback
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid, "status": from}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	return r.conditionResult(ctx, oid, res)
}

func (r *SurveyRepo) AddVote(ctx context.Context, id string, v survey.Voter, c *survey.Comment) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return survey.ErrNotFound
	}

	counter := "yesCount"
	switch v.Vote {
	case survey.ChoiceYes:
	case survey.ChoiceNo:
		counter = "noCount"
	default:
		return survey.ErrInvalidVote
	}

	push := bson.M{"voter": v}
	if c != nil {
		push["comment"] = *c
	}
	filter := bson.M{
		"_id":             oid,
		"status":          survey.StatusPublish,
		"voter.userEmail": bson.M{"$ne": v.UserEmail},
	}
	update := bson.M{
		"$inc":  bson.M{counter: 1},
		"$push": push,
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	return r.conditionResult(ctx, oid, res)
}

func (r *SurveyRepo) AddComment(ctx context.Context, id string, c survey.Comment) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return survey.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"comment": c}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return survey.ErrNotFound
	}
	return nil
}

func (r *SurveyRepo) AddReport(ctx context.Context, id string, rep survey.Report) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return survey.ErrNotFound
	}
	filter := bson.M{
		"_id":                  oid,
		"reportedBy.userEmail": bson.M{"$ne": rep.UserEmail},
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"reportedBy": rep}})
	if err != nil {
		return err
	}
	return r.conditionResult(ctx, oid, res)
}

func (r *SurveyRepo) TopByVotes(ctx context.Context, limit int) ([]survey.Survey, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": survey.StatusPublish}}},
		{{Key: "$addFields", Value: bson.M{
			"totalVotes": bson.M{"$add": bson.A{
				bson.M{"$ifNull": bson.A{"$yesCount", 0}},
				bson.M{"$ifNull": bson.A{"$noCount", 0}},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalVotes", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur)
}

func (r *SurveyRepo) Latest(ctx context.Context, limit int) ([]survey.Survey, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"status": survey.StatusPublish}, opts)
}

func (r *SurveyRepo) FindByVoter(ctx context.Context, f survey.Filter) ([]survey.Survey, error) {
	match := bson.M{"userEmail": f.UserEmail}
	if f.Vote != "" {
		match["vote"] = f.Vote
	}
	return r.find(ctx, bson.M{"voter": bson.M{"$elemMatch": match}}, createdAsc())
}

func (r *SurveyRepo) FindByCommenter(ctx context.Context, f survey.Filter) ([]survey.Survey, error) {
	return r.find(ctx, bson.M{"comment": bson.M{"$elemMatch": bson.M{"userEmail": f.UserEmail}}}, createdAsc())
}

func (r *SurveyRepo) FindByReporter(ctx context.Context, f survey.Filter) ([]survey.Survey, error) {
	return r.find(ctx, bson.M{"reportedBy": bson.M{"$elemMatch": bson.M{"userEmail": f.UserEmail}}}, createdAsc())
}

func (r *SurveyRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]survey.Survey, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur)
}

// conditionResult turns a zero-match conditional update into ErrNotFound or
// ErrConditionFailed depending on whether the document exists at all.
func (r *SurveyRepo) conditionResult(ctx context.Context, oid primitive.ObjectID, res *mongo.UpdateResult) error {
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return survey.ErrNotFound
	}
	return survey.ErrConditionFailed
}

func createdAsc() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]survey.Survey, error) {
	defer cur.Close(ctx)

	var docs []surveyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	res := make([]survey.Survey, 0, len(docs))
	for i := range docs {
		res = append(res, docs[i].toSurvey())
	}
	return res, nil
}
