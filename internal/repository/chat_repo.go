package repository

import (
	"SmartChat/internal/model"
	"SmartChat/internal/pkg/consts"
	"SmartChat/internal/pkg/crypto"
	"context"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// ChatRepo 会话历史的持久化接口
// 每个会话对应一个独立的加密文件，写入为整文件读改写
type ChatRepo interface {
	SaveDirectMessage(ctx context.Context, userID1, userID2 string, msg *model.DirectMessage) error
	LoadDirectMessages(ctx context.Context, userID1, userID2 string) ([]*model.DirectMessage, error)
	// MarkDirectDelivered 将会话中由对方发出、仍处于 sent 状态的消息改写为 delivered，
	// 返回发生状态跃迁的 messageId 列表
	MarkDirectDelivered(ctx context.Context, recipientID, otherUserID string) ([]string, error)
	DeleteDirectChat(ctx context.Context, userID1, userID2 string) error
	// ListDirectPartners 枚举与指定用户存在单聊会话文件的全部对端 UID
	ListDirectPartners(ctx context.Context, userID string) ([]string, error)

	SaveGroupMessage(ctx context.Context, groupID string, msg *model.GroupMessage) error
	LoadGroupMessages(ctx context.Context, groupID string) ([]*model.GroupMessage, error)
	DeleteGroupChat(ctx context.Context, groupID string) error
}

// DirectChatID 单聊会话的确定性标识，与参与者顺序无关
func DirectChatID(userID1, userID2 string) string {
	pair := []string{userID1, userID2}
	sort.Strings(pair)
	return consts.DirectChatPrefix + pair[0] + "_" + pair[1]
}

// GroupChatID 群聊会话标识
func GroupChatID(groupID string) string {
	return consts.GroupChatPrefix + groupID
}

type chatRepoImpl struct {
	baseDir    string
	passphrase string

	// 按会话 ID 串行化读改写，避免同一会话的并发写互相覆盖
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewChatRepo 初始化存储目录并返回仓库实例
func NewChatRepo(baseDir, passphrase string) (ChatRepo, error) {
	for _, dir := range []string{
		baseDir,
		filepath.Join(baseDir, consts.DirectChatDir),
		filepath.Join(baseDir, consts.GroupChatDir),
	} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &chatRepoImpl{
		baseDir:    baseDir,
		passphrase: passphrase,
		locks:      map[string]*sync.Mutex{},
	}, nil
}

func (s *chatRepoImpl) lockFor(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}

func (s *chatRepoImpl) directPath(chatID string) string {
	return filepath.Join(s.baseDir, consts.DirectChatDir, chatID+consts.ChatFileSuffix)
}

func (s *chatRepoImpl) groupPath(chatID string) string {
	return filepath.Join(s.baseDir, consts.GroupChatDir, chatID+consts.ChatFileSuffix)
}

// readList 解密并反序列化某个会话文件
// 文件不存在、解密失败或内容损坏都按空历史处理，仅记录日志
func readList[T any](path, passphrase string) []*T {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error("Failed to read conversation file", "path", path, "err", err)
		}
		return nil
	}
	plaintext, err := crypto.Decrypt(string(raw), passphrase)
	if err != nil {
		log.Error("Conversation file decryption failed, treating as empty history", "path", path, "err", err)
		return nil
	}
	var list []*T
	if err := json.Unmarshal(plaintext, &list); err != nil {
		log.Error("Conversation file corrupted, treating as empty history", "path", path, "err", err)
		return nil
	}
	return list
}

// writeList 序列化、加密并整文件覆盖写入
func writeList[T any](path, passphrase string, list []*T) error {
	plaintext, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	encoded, err := crypto.Encrypt(plaintext, passphrase)
	if err != nil {
		return fmt.Errorf("encrypt conversation: %w", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return fmt.Errorf("write conversation file: %w", err)
	}
	return nil
}

// SaveDirectMessage 追加一条单聊消息并补写 savedAt
func (s *chatRepoImpl) SaveDirectMessage(ctx context.Context, userID1, userID2 string, msg *model.DirectMessage) error {
	chatID := DirectChatID(userID1, userID2)
	l := s.lockFor(chatID)
	l.Lock()
	defer l.Unlock()

	path := s.directPath(chatID)
	list := readList[model.DirectMessage](path, s.passphrase)

	saved := *msg
	saved.SavedAt = time.Now().UTC().Format(time.RFC3339Nano)
	list = append(list, &saved)

	return writeList(path, s.passphrase, list)
}

// LoadDirectMessages 读取完整单聊历史 (按写入顺序)
func (s *chatRepoImpl) LoadDirectMessages(ctx context.Context, userID1, userID2 string) ([]*model.DirectMessage, error) {
	chatID := DirectChatID(userID1, userID2)
	l := s.lockFor(chatID)
	l.Lock()
	defer l.Unlock()

	list := readList[model.DirectMessage](s.directPath(chatID), s.passphrase)
	if list == nil {
		list = []*model.DirectMessage{}
	}
	return list, nil
}

// MarkDirectDelivered 收件人拉取历史时的送达确认回写
func (s *chatRepoImpl) MarkDirectDelivered(ctx context.Context, recipientID, otherUserID string) ([]string, error) {
	chatID := DirectChatID(recipientID, otherUserID)
	l := s.lockFor(chatID)
	l.Lock()
	defer l.Unlock()

	path := s.directPath(chatID)
	list := readList[model.DirectMessage](path, s.passphrase)
	if len(list) == 0 {
		return nil, nil
	}

	var delivered []string
	for _, m := range list {
		if m.FromUserID == otherUserID && m.Status == consts.StatusSent {
			m.Status = consts.StatusDelivered
			delivered = append(delivered, m.MessageID)
		}
	}
	if len(delivered) == 0 {
		return nil, nil
	}
	if err := writeList(path, s.passphrase, list); err != nil {
		return nil, err
	}
	return delivered, nil
}

// DeleteDirectChat 删除单聊会话文件，幂等
func (s *chatRepoImpl) DeleteDirectChat(ctx context.Context, userID1, userID2 string) error {
	chatID := DirectChatID(userID1, userID2)
	l := s.lockFor(chatID)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(s.directPath(chatID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListDirectPartners 扫描单聊目录，解析文件名中的对端 UID
func (s *chatRepoImpl) ListDirectPartners(ctx context.Context, userID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, consts.DirectChatDir))
	if err != nil {
		return nil, err
	}

	var partners []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, consts.ChatFileSuffix) {
			continue
		}
		pair := strings.TrimSuffix(strings.TrimPrefix(name, consts.DirectChatPrefix), consts.ChatFileSuffix)
		switch {
		case strings.HasPrefix(pair, userID+"_"):
			partners = append(partners, strings.TrimPrefix(pair, userID+"_"))
		case strings.HasSuffix(pair, "_"+userID):
			partners = append(partners, strings.TrimSuffix(pair, "_"+userID))
		}
	}
	return partners, nil
}

// SaveGroupMessage 追加一条群聊消息并补写 savedAt
func (s *chatRepoImpl) SaveGroupMessage(ctx context.Context, groupID string, msg *model.GroupMessage) error {
	chatID := GroupChatID(groupID)
	l := s.lockFor(chatID)
	l.Lock()
	defer l.Unlock()

	path := s.groupPath(chatID)
	list := readList[model.GroupMessage](path, s.passphrase)

	saved := *msg
	saved.SavedAt = time.Now().UTC().Format(time.RFC3339Nano)
	list = append(list, &saved)

	return writeList(path, s.passphrase, list)
}

// LoadGroupMessages 读取完整群聊历史
func (s *chatRepoImpl) LoadGroupMessages(ctx context.Context, groupID string) ([]*model.GroupMessage, error) {
	chatID := GroupChatID(groupID)
	l := s.lockFor(chatID)
	l.Lock()
	defer l.Unlock()

	list := readList[model.GroupMessage](s.groupPath(chatID), s.passphrase)
	if list == nil {
		list = []*model.GroupMessage{}
	}
	return list, nil
}

// DeleteGroupChat 删除群聊会话文件，幂等
func (s *chatRepoImpl) DeleteGroupChat(ctx context.Context, groupID string) error {
	chatID := GroupChatID(groupID)
	l := s.lockFor(chatID)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(s.groupPath(chatID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
