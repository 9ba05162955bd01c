package services

import (
	"context"
	"fmt"
	"time"

	"task-manager/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AnalyticsSummary struct {
	Total        int `bson:"total" json:"total"`
	Completed    int `bson:"completed" json:"completed"`
	Pending      int `bson:"pending" json:"pending"`
	InProgress   int `bson:"inProgress" json:"inProgress"`
	Overdue      int `bson:"overdue" json:"overdue"`
	Owned        int `bson:"owned" json:"owned"`
	SharedWithMe int `bson:"sharedWithMe" json:"sharedWithMe"`
}

type StatusCount struct {
	Status models.TaskStatus `json:"status"`
	Count  int               `json:"count"`
}

type AnalyticsOverview struct {
	Summary         AnalyticsSummary `json:"summary"`
	StatusBreakdown []StatusCount    `json:"statusBreakdown"`
}

type TrendPoint struct {
	Period    string `json:"period"`
	Completed int    `json:"completed"`
	Overdue   int    `json:"overdue"`
}

type AnalyticsTrends struct {
	Range string       `json:"range"`
	Data  []TrendPoint `json:"data"`
}

// AnalyticsService aggregates over the caller's owned-or-shared tasks. Plain
// grouping and summation, no state of its own.
type AnalyticsService struct {
	tasksCollection *mongo.Collection
}

func NewAnalyticsService(tasksCollection *mongo.Collection) *AnalyticsService {
	return &AnalyticsService{tasksCollection: tasksCollection}
}

func ownedOrSharedMatch(userID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"sharedWith": userID},
	}}
}

// Overview returns totals and a per-status breakdown for the user's task set.
func (s *AnalyticsService) Overview(ctx context.Context, userID primitive.ObjectID) (*AnalyticsOverview, error) {
	now := time.Now().UTC()

	totalsPipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: ownedOrSharedMatch(userID)}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.StatusCompleted}}, 1, 0},
			}},
			"pending": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.StatusPending}}, 1, 0},
			}},
			"inProgress": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.StatusInProgress}}, 1, 0},
			}},
			"overdue": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$and": bson.A{
					bson.M{"$ne": bson.A{"$status", models.StatusCompleted}},
					bson.M{"$lt": bson.A{"$dueDate", now}},
					bson.M{"$ne": bson.A{"$dueDate", nil}},
				}}, 1, 0},
			}},
			"owned": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$owner", userID}}, 1, 0},
			}},
			"sharedWithMe": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$ne": bson.A{"$owner", userID}}, 1, 0},
			}},
		}}},
	}

	cursor, err := s.tasksCollection.Aggregate(ctx, totalsPipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate task totals: %v", err)
	}
	var totals []AnalyticsSummary
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("failed to decode task totals: %v", err)
	}

	summary := AnalyticsSummary{}
	if len(totals) > 0 {
		summary = totals[0]
	}

	breakdownPipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: ownedOrSharedMatch(userID)}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err = s.tasksCollection.Aggregate(ctx, breakdownPipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate status breakdown: %v", err)
	}
	var grouped []struct {
		Status models.TaskStatus `bson:"_id"`
		Count  int               `bson:"count"`
	}
	if err := cursor.All(ctx, &grouped); err != nil {
		return nil, fmt.Errorf("failed to decode status breakdown: %v", err)
	}

	counts := map[models.TaskStatus]int{}
	for _, g := range grouped {
		counts[g.Status] = g.Count
	}

	// Always report all three statuses, zeroes included.
	breakdown := []StatusCount{}
	for _, status := range []models.TaskStatus{models.StatusPending, models.StatusInProgress, models.StatusCompleted} {
		breakdown = append(breakdown, StatusCount{Status: status, Count: counts[status]})
	}

	return &AnalyticsOverview{Summary: summary, StatusBreakdown: breakdown}, nil
}

// Trends buckets completed and overdue counts by due-date period: the last
// 7 weeks for the weekly range, the last 12 months for monthly. Anything
// other than "monthly" falls back to weekly.
func (s *AnalyticsService) Trends(ctx context.Context, userID primitive.ObjectID, rng string) (*AnalyticsTrends, error) {
	now := time.Now().UTC()

	var start time.Time
	var format string
	if rng == "monthly" {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
		format = "%Y-%m"
	} else {
		rng = "weekly"
		start = now.AddDate(0, 0, -7*7)
		format = "%Y-W%U"
	}

	match := ownedOrSharedMatch(userID)
	match["dueDate"] = bson.M{"$ne": nil, "$gte": start}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$project", Value: bson.M{
			"period": bson.M{"$dateToString": bson.M{"format": format, "date": "$dueDate"}},
			"completed": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.StatusCompleted}}, 1, 0},
			},
			"overdue": bson.M{
				"$cond": bson.A{bson.M{"$and": bson.A{
					bson.M{"$ne": bson.A{"$status", models.StatusCompleted}},
					bson.M{"$lt": bson.A{"$dueDate", now}},
				}}, 1, 0},
			},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":       "$period",
			"completed": bson.M{"$sum": "$completed"},
			"overdue":   bson.M{"$sum": "$overdue"},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.tasksCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate trends: %v", err)
	}
	var grouped []struct {
		Period    string `bson:"_id"`
		Completed int    `bson:"completed"`
		Overdue   int    `bson:"overdue"`
	}
	if err := cursor.All(ctx, &grouped); err != nil {
		return nil, fmt.Errorf("failed to decode trends: %v", err)
	}

	data := []TrendPoint{}
	for _, g := range grouped {
		data = append(data, TrendPoint{Period: g.Period, Completed: g.Completed, Overdue: g.Overdue})
	}

	return &AnalyticsTrends{Range: rng, Data: data}, nil
}
