package provider

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"instaview/pkg/instagram"
)

// Fixed bands the mock draws display counts from.
var (
	mockFollowerBands  = []string{"1.2K", "5.8K", "12.3K", "45.7K", "123K", "567K", "1.2M", "3.4M"}
	mockFollowingBands = []string{"234", "567", "891", "1.2K", "2.3K", "4.5K"}
	mockPostBands      = []string{"23", "67", "145", "234", "456", "789", "1.2K"}
)

// mockIdentity is one sample persona the mock builds profiles from.
type mockIdentity struct {
	fullName    string
	bio         string
	pictureURL  string
	website     string
	location    string
	accountType instagram.AccountType
}

var mockIdentitiesEN = []mockIdentity{
	{
		fullName:    "Alex Johnson",
		bio:         "Digital creator | Travel photographer | Coffee enthusiast | Living life one adventure at a time",
		pictureURL:  "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop&crop=face",
		website:     "alexjohnson.com",
		location:    "New York, NY",
		accountType: instagram.AccountCreator,
	},
	{
		fullName:    "Sarah Chen",
		bio:         "Fashion designer | Sustainable living advocate | NYC based | Creating a better tomorrow",
		pictureURL:  "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=150&h=150&fit=crop&crop=face",
		website:     "sarahchen.design",
		location:    "New York, NY",
		accountType: instagram.AccountBusiness,
	},
	{
		fullName:    "Mike Rodriguez",
		bio:         "Fitness coach | Nutrition expert | Helping you reach your goals | Train hard, stay humble",
		pictureURL:  "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150&h=150&fit=crop&crop=face",
		website:     "mikefit.com",
		location:    "Los Angeles, CA",
		accountType: instagram.AccountCreator,
	},
	{
		fullName:    "Emma Thompson",
		bio:         "Food blogger | Recipe creator | Cookbook author | Sharing delicious moments daily",
		pictureURL:  "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=150&h=150&fit=crop&crop=face",
		website:     "emmacooks.blog",
		location:    "San Francisco, CA",
		accountType: instagram.AccountCreator,
	},
}

var mockIdentitiesZH = []mockIdentity{
	{
		fullName:    "李小明",
		bio:         "数码创作者 | 旅行摄影师 | 咖啡爱好者 | 用镜头记录美好生活",
		pictureURL:  "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop&crop=face",
		website:     "lixiaoming.cn",
		location:    "北京市",
		accountType: instagram.AccountCreator,
	},
	{
		fullName:    "王小美",
		bio:         "时尚设计师 | 可持续生活倡导者 | 上海时装周常客 | 创造美好明天",
		pictureURL:  "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=150&h=150&fit=crop&crop=face",
		website:     "wangxiaomei.design",
		location:    "上海市",
		accountType: instagram.AccountBusiness,
	},
	{
		fullName:    "张健身",
		bio:         "健身教练 | 营养专家 | 帮你实现健身目标 | 努力训练，保持谦逊",
		pictureURL:  "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150&h=150&fit=crop&crop=face",
		website:     "zhangjianshen.com",
		location:    "深圳市",
		accountType: instagram.AccountCreator,
	},
	{
		fullName:    "陈美食",
		bio:         "美食博主 | 食谱创作者 | 美食书作者 | 每日分享美味时光",
		pictureURL:  "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=150&h=150&fit=crop&crop=face",
		website:     "chenmeishi.blog",
		location:    "广州市",
		accountType: instagram.AccountBusiness,
	},
}

// mockPostImages is the pool of sample media the mock assembles a grid from.
var mockPostImages = []string{
	"photo-1506905925346-21bda4d32df4", // landscape
	"photo-1493770348161-369560ae357d", // food
	"photo-1511367461989-f85a21fda167", // portrait
	"photo-1469334031218-e382a71b716b", // architecture
	"photo-1506794778202-cad84cf45f1d", // people
	"photo-1454372182658-c712e4c5a1db", // nature
	"photo-1498050108023-c5249f4df085", // technology
	"photo-1517849845537-4d257902454a", // pets
}

// Mock is a deterministic-shape, randomized-content provider for demos and
// tests. It emits canonical profiles directly, bypassing the transformer.
type Mock struct {
	minDelay    time.Duration
	maxDelay    time.Duration
	failureRate float64
	locale      string

	mu  sync.Mutex
	rng *rand.Rand
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithFailureRate sets the probability in [0, 1] that a lookup fails with a
// user-not-found error, to exercise error paths.
func WithFailureRate(rate float64) MockOption {
	return func(m *Mock) { m.failureRate = rate }
}

// WithLocale selects the sample identity pool ("en" or "zh").
func WithLocale(locale string) MockOption {
	return func(m *Mock) { m.locale = locale }
}

// WithDelayRange overrides the simulated latency window. Tests use a zero
// window.
func WithDelayRange(min, max time.Duration) MockOption {
	return func(m *Mock) { m.minDelay, m.maxDelay = min, max }
}

// WithRandSource seeds the generator for reproducible output.
func WithRandSource(src rand.Source) MockOption {
	return func(m *Mock) { m.rng = rand.New(src) }
}

// NewMock creates the mock provider. Defaults: 1.5-2.5s simulated latency,
// 10% failure rate, English identities.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		minDelay:    1500 * time.Millisecond,
		maxDelay:    2500 * time.Millisecond,
		failureRate: 0.1,
		locale:      "en",
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lookup simulates an upstream fetch: waits the latency window, fails with
// the configured probability, and otherwise assembles a profile from the
// sample identity pool.
func (m *Mock) Lookup(ctx context.Context, username string) (*instagram.Profile, error) {
	if err := m.simulateLatency(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rng.Float64() < m.failureRate {
		return nil, errors.New("user not found")
	}

	identities := mockIdentitiesEN
	if m.locale == "zh" {
		identities = mockIdentitiesZH
	}
	identity := identities[m.rng.Intn(len(identities))]

	return &instagram.Profile{
		Username:          "@" + username,
		FullName:          identity.fullName,
		Bio:               identity.bio,
		ProfilePictureURL: identity.pictureURL,
		Followers:         mockFollowerBands[m.rng.Intn(len(mockFollowerBands))],
		Following:         mockFollowingBands[m.rng.Intn(len(mockFollowingBands))],
		PostsCount:        mockPostBands[m.rng.Intn(len(mockPostBands))],
		IsVerified:        m.rng.Float64() > 0.7,
		IsPrivate:         m.rng.Float64() > 0.85,
		Website:           identity.website,
		Location:          identity.location,
		AccountType:       identity.accountType,
		RecentPosts:       m.generatePosts(instagram.MaxRecentPosts),
	}, nil
}

func (m *Mock) simulateLatency(ctx context.Context) error {
	window := m.maxDelay - m.minDelay

	m.mu.Lock()
	delay := m.minDelay
	if window > 0 {
		delay += time.Duration(m.rng.Int63n(int64(window)))
	}
	m.mu.Unlock()

	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// generatePosts builds count synthetic posts. Caller holds m.mu.
func (m *Mock) generatePosts(count int) []instagram.Post {
	posts := make([]instagram.Post, 0, count)
	for i := 0; i < count; i++ {
		photoID := mockPostImages[m.rng.Intn(len(mockPostImages))]
		randomID := m.rng.Intn(1_000_000)

		posts = append(posts, instagram.Post{
			ID:            fmt.Sprintf("post_%d_%d", i, randomID),
			ImageURL:      fmt.Sprintf("https://images.unsplash.com/%s?w=300&h=300&fit=crop&random=%d", photoID, randomID),
			Link:          instagram.PostLink(fmt.Sprintf("mock_%d_%d", i, randomID)),
			LikesCount:    instagram.FormatCount(m.rng.Intn(5000) + 1),
			CommentsCount: instagram.FormatCount(m.rng.Intn(500) + 1),
		})
	}
	return posts
}
