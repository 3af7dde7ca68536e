package repositories

import (
	"fmt"
	"os"
	"time"

	"github.com/gocql/gocql"

	"github.com/aruchith08/AcademiaMarket/logging"
	"github.com/aruchith08/AcademiaMarket/models"
)

// MessageRepository is the chat transcript log: an append-only sequence of
// messages keyed by task id, read back in timestamp order.
type MessageRepository interface {
	AppendMessage(message *models.Message) error
	GetMessagesByTask(taskID string) ([]models.Message, error)
}

// CassandraMessageRepo stores the transcript in Cassandra, clustered by
// timestamp within each task partition so reads come back in send order.
type CassandraMessageRepo struct {
	session *gocql.Session
}

func NewCassandraMessageRepo() (*CassandraMessageRepo, error) {
	db := os.Getenv("CASS_DB")
	if db == "" {
		db = "127.0.0.1"
	}

	cluster := gocql.NewCluster(db)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS chat
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: KEYSPACE_CREATE_FAILED, Description: Failed to create chat keyspace: %v", err)
		return nil, err
	}
	session.Close()

	cluster.Keyspace = "chat"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logging.Logger.Errorf("Event ID: KEYSPACE_CONNECT_FAILED, Description: Failed to connect to chat keyspace: %v", err)
		return nil, err
	}

	logging.Logger.Info("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra chat keyspace.")
	return &CassandraMessageRepo{session: session}, nil
}

func (mr *CassandraMessageRepo) CloseSession() {
	mr.session.Close()
	logging.Logger.Info("Event ID: CASSANDRA_CLOSED, Description: Cassandra session closed.")
}

// CreateTable bootstraps the messages table. Clustering by created_at keeps
// each transcript ordered inside its task partition.
func (mr *CassandraMessageRepo) CreateTable() {
	err := mr.session.Query(
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID,
			task_id TEXT,
			sender_id TEXT,
			sender_name TEXT,
			text TEXT,
			created_at TIMESTAMP,
			type TEXT,
			file_url TEXT,
			PRIMARY KEY ((task_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at ASC, id ASC)`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: TABLE_CREATE_FAILED, Description: Failed to create messages table: %v", err)
	} else {
		logging.Logger.Info("Event ID: TABLE_CREATED, Description: Messages table ready.")
	}
}

func (mr *CassandraMessageRepo) AppendMessage(message *models.Message) error {
	if message.ID == "" {
		message.ID = gocql.TimeUUID().String()
	}

	createdAt, err := time.Parse(time.RFC3339, message.Timestamp)
	if err != nil {
		return fmt.Errorf("invalid message timestamp: %v", err)
	}

	err = mr.session.Query(
		`INSERT INTO messages (id, task_id, sender_id, sender_name, text, created_at, type, file_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		message.ID, message.TaskID, message.SenderID, message.SenderName,
		message.Text, createdAt, string(message.Type), message.FileURL,
	).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: MESSAGE_INSERT_FAILED, Description: Failed to append chat message: %v", err)
		return err
	}

	return nil
}

func (mr *CassandraMessageRepo) GetMessagesByTask(taskID string) ([]models.Message, error) {
	query := `SELECT id, task_id, sender_id, sender_name, text, created_at, type, file_url
			  FROM messages WHERE task_id = ?`

	iter := mr.session.Query(query, taskID).Iter()
	var messages []models.Message
	var message models.Message
	var createdAt time.Time
	var msgType string

	for iter.Scan(&message.ID, &message.TaskID, &message.SenderID, &message.SenderName,
		&message.Text, &createdAt, &msgType, &message.FileURL) {
		message.Timestamp = createdAt.UTC().Format(time.RFC3339)
		message.Type = models.MessageType(msgType)
		messages = append(messages, message)
	}

	if err := iter.Close(); err != nil {
		logging.Logger.Errorf("Event ID: MESSAGE_QUERY_FAILED, Description: Failed to read transcript for task %s: %v", taskID, err)
		return nil, err
	}

	return messages, nil
}
