package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/property-engine/internal/config"
	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/internal/mocks"
	"github.com/segyhp/property-engine/internal/repository"
	customError "github.com/segyhp/property-engine/pkg/errors"
	"github.com/segyhp/property-engine/pkg/logger"
)

var (
	fixedNow  = time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	testCache = config.CacheConfig{BookedRangesTTL: time.Minute, CalculationTTL: time.Hour}

	guest = domain.Requester{UserID: "user-1", Role: domain.RoleUser}
	other = domain.Requester{UserID: "user-2", Role: domain.RoleUser}
	admin = domain.Requester{UserID: "admin-1", Role: domain.RoleAdmin}
)

func day(month time.Month, d int) domain.Date {
	return domain.NewDate(2024, month, d)
}

func confirmedBooking(propertyID, userID string, start, end domain.Date) *domain.Booking {
	return &domain.Booking{
		ID:         uuid.New(),
		PropertyID: propertyID,
		UserID:     userID,
		StartDate:  start,
		EndDate:    end,
		Status:     domain.BookingStatusConfirmed,
		CreatedAt:  fixedNow.Add(-time.Hour),
		UpdatedAt:  fixedNow.Add(-time.Hour),
	}
}

func newTestBookingService(repo repository.BookingRepository, cache repository.Cache) *BookingService {
	s := NewBookingService(repo, cache, testCache, logger.Discard())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestCheckAvailability(t *testing.T) {
	existing := confirmedBooking("prop-1", "user-9", day(time.June, 1), day(time.June, 10))
	cancelled := confirmedBooking("prop-1", "user-9", day(time.June, 11), day(time.June, 20))
	cancelled.Status = domain.BookingStatusCancelled

	tests := []struct {
		name          string
		start, end    domain.Date
		setupMocks    func(*mocks.MockBookingRepository)
		expected      bool
		expectedError error
	}{
		{
			name:  "same-day turnover is unavailable",
			start: day(time.June, 10),
			end:   day(time.June, 15),
			setupMocks: func(repo *mocks.MockBookingRepository) {
				repo.On("ListByProperty", mock.Anything, "prop-1", domain.BookingStatusConfirmed).
					Return([]*domain.Booking{existing}, nil)
			},
			expected: false,
		},
		{
			name:  "day after checkout is available",
			start: day(time.June, 11),
			end:   day(time.June, 15),
			setupMocks: func(repo *mocks.MockBookingRepository) {
				repo.On("ListByProperty", mock.Anything, "prop-1", domain.BookingStatusConfirmed).
					Return([]*domain.Booking{existing}, nil)
			},
			expected: true,
		},
		{
			name:  "cancelled bookings never block",
			start: day(time.June, 12),
			end:   day(time.June, 14),
			setupMocks: func(repo *mocks.MockBookingRepository) {
				repo.On("ListByProperty", mock.Anything, "prop-1", domain.BookingStatusConfirmed).
					Return([]*domain.Booking{existing, cancelled}, nil)
			},
			expected: true,
		},
		{
			name:  "single day range inside a booking",
			start: day(time.June, 5),
			end:   day(time.June, 5),
			setupMocks: func(repo *mocks.MockBookingRepository) {
				repo.On("ListByProperty", mock.Anything, "prop-1", domain.BookingStatusConfirmed).
					Return([]*domain.Booking{existing}, nil)
			},
			expected: false,
		},
		{
			name:          "start after end is invalid",
			start:         day(time.June, 15),
			end:           day(time.June, 10),
			setupMocks:    func(repo *mocks.MockBookingRepository) {},
			expectedError: customError.ErrValidation,
		},
		{
			name:  "store failure",
			start: day(time.June, 11),
			end:   day(time.June, 15),
			setupMocks: func(repo *mocks.MockBookingRepository) {
				repo.On("ListByProperty", mock.Anything, "prop-1", domain.BookingStatusConfirmed).
					Return(nil, errors.New("connection refused"))
			},
			expectedError: customError.ErrDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockBookingRepository)
			tt.setupMocks(repo)
			s := newTestBookingService(repo, new(mocks.MockCache))

			available, err := s.CheckAvailability(context.Background(), "prop-1", domain.NewDateRange(tt.start, tt.end))

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.False(t, available)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, available)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCreateBooking(t *testing.T) {
	existing := confirmedBooking("prop-1", "user-9", day(time.June, 1), day(time.June, 10))

	tests := []struct {
		name          string
		requester     domain.Requester
		request       *domain.CreateBookingRequest
		setupMocks    func(*mocks.MockBookingRepository, *mocks.MockCache)
		expectedError error
		expectedCode  string
	}{
		{
			name:      "Success - free dates",
			requester: guest,
			request:   &domain.CreateBookingRequest{PropertyID: "prop-1", StartDate: day(time.June, 11), EndDate: day(time.June, 15)},
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {
				repo.On("CreateExclusive", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
					return b.PropertyID == "prop-1" && b.UserID == "user-1" && b.Status == domain.BookingStatusConfirmed
				})).Return([]*domain.Booking{existing}, nil)
				cache.On("Incr", mock.Anything, "booked-gen:prop-1").Return(int64(1), nil)
			},
		},
		{
			name:      "Success - cache invalidation failure is ignored",
			requester: guest,
			request:   &domain.CreateBookingRequest{PropertyID: "prop-1", StartDate: day(time.June, 11), EndDate: day(time.June, 15)},
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {
				repo.On("CreateExclusive", mock.Anything, mock.Anything).Return([]*domain.Booking{}, nil)
				cache.On("Incr", mock.Anything, "booked-gen:prop-1").Return(int64(0), errors.New("redis down"))
			},
		},
		{
			name:      "Failure - overlaps a confirmed booking",
			requester: guest,
			request:   &domain.CreateBookingRequest{PropertyID: "prop-1", StartDate: day(time.June, 10), EndDate: day(time.June, 15)},
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {
				repo.On("CreateExclusive", mock.Anything, mock.Anything).Return([]*domain.Booking{existing}, nil)
			},
			expectedError: customError.ErrBookingConflict,
			expectedCode:  customError.ErrCodeBookingConflict,
		},
		{
			name:      "Failure - exclusion constraint in the store",
			requester: guest,
			request:   &domain.CreateBookingRequest{PropertyID: "prop-1", StartDate: day(time.June, 11), EndDate: day(time.June, 15)},
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {
				repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(nil, repository.ErrConflict)
			},
			expectedError: customError.ErrBookingConflict,
			expectedCode:  customError.ErrCodeBookingConflict,
		},
		{
			name:      "Failure - database error",
			requester: guest,
			request:   &domain.CreateBookingRequest{PropertyID: "prop-1", StartDate: day(time.June, 11), EndDate: day(time.June, 15)},
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {
				repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(nil, errors.New("tx aborted"))
			},
			expectedError: customError.ErrDatabase,
			expectedCode:  customError.ErrCodeDatabaseError,
		},
		{
			name:          "Failure - start after end",
			requester:     guest,
			request:       &domain.CreateBookingRequest{PropertyID: "prop-1", StartDate: day(time.June, 15), EndDate: day(time.June, 11)},
			setupMocks:    func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {},
			expectedError: customError.ErrValidation,
			expectedCode:  customError.ErrCodeValidation,
		},
		{
			name:          "Failure - missing property",
			requester:     guest,
			request:       &domain.CreateBookingRequest{StartDate: day(time.June, 11), EndDate: day(time.June, 15)},
			setupMocks:    func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {},
			expectedError: customError.ErrValidation,
			expectedCode:  customError.ErrCodeValidation,
		},
		{
			name:          "Failure - anonymous requester",
			requester:     domain.Requester{},
			request:       &domain.CreateBookingRequest{PropertyID: "prop-1", StartDate: day(time.June, 11), EndDate: day(time.June, 15)},
			setupMocks:    func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {},
			expectedError: customError.ErrUnauthenticated,
			expectedCode:  customError.ErrCodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockBookingRepository)
			cache := new(mocks.MockCache)
			tt.setupMocks(repo, cache)
			s := newTestBookingService(repo, cache)

			booking, err := s.CreateBooking(context.Background(), tt.requester, tt.request)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, tt.expectedCode, customError.CodeOf(err))
				assert.Nil(t, booking)
				cache.AssertNotCalled(t, "Incr", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				require.NotNil(t, booking)
				assert.NotEqual(t, uuid.Nil, booking.ID)
				assert.Equal(t, tt.requester.UserID, booking.UserID)
				assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
				assert.Equal(t, fixedNow, booking.CreatedAt)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestCreateBooking_ConflictMessage(t *testing.T) {
	existing := confirmedBooking("prop-1", "user-9", day(time.June, 1), day(time.June, 10))
	repo := new(mocks.MockBookingRepository)
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return([]*domain.Booking{existing}, nil)
	s := newTestBookingService(repo, new(mocks.MockCache))

	_, err := s.CreateBooking(context.Background(), guest, &domain.CreateBookingRequest{
		PropertyID: "prop-1", StartDate: day(time.June, 10), EndDate: day(time.June, 15),
	})

	assert.Equal(t, "This property is already booked for the selected dates.", customError.MessageOf(err))
}

func TestCreateBooking_ConcurrentRequestsYieldOneBooking(t *testing.T) {
	store := repository.NewMemoryStore()
	s := newTestBookingService(store.Bookings(), repository.NewNoopCache())

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			requester := domain.Requester{UserID: uuid.NewString(), Role: domain.RoleUser}
			request := &domain.CreateBookingRequest{
				PropertyID: "prop-1",
				StartDate:  day(time.June, 1+i%5),
				EndDate:    day(time.June, 6+i%5),
			}
			<-start
			_, err := s.CreateBooking(context.Background(), requester, request)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, customError.ErrBookingConflict):
				conflicts++
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)

	ranges, err := s.ListBookedDateRanges(context.Background(), "prop-1")
	require.NoError(t, err)
	assert.Len(t, ranges, 1)
}

func TestCancelBooking(t *testing.T) {
	tests := []struct {
		name          string
		requester     domain.Requester
		status        domain.BookingStatus
		setupMocks    func(*mocks.MockBookingRepository, *mocks.MockCache, *domain.Booking)
		expectedError error
	}{
		{
			name:      "Success - owner cancels",
			requester: guest,
			status:    domain.BookingStatusConfirmed,
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
				cancelled := *b
				cancelled.Status = domain.BookingStatusCancelled
				repo.On("UpdateStatus", mock.Anything, b.ID, domain.BookingStatusCancelled).Return(&cancelled, nil)
				cache.On("Incr", mock.Anything, "booked-gen:prop-1").Return(int64(1), nil)
			},
		},
		{
			name:      "Success - admin cancels someone else's booking",
			requester: admin,
			status:    domain.BookingStatusConfirmed,
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
				cancelled := *b
				cancelled.Status = domain.BookingStatusCancelled
				repo.On("UpdateStatus", mock.Anything, b.ID, domain.BookingStatusCancelled).Return(&cancelled, nil)
				cache.On("Incr", mock.Anything, "booked-gen:prop-1").Return(int64(1), nil)
			},
		},
		{
			name:      "Success - repeat cancel is a no-op",
			requester: guest,
			status:    domain.BookingStatusCancelled,
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
			},
		},
		{
			name:      "Failure - another user",
			requester: other,
			status:    domain.BookingStatusConfirmed,
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
			},
			expectedError: customError.ErrForbidden,
		},
		{
			name:      "Failure - booking not found",
			requester: guest,
			status:    domain.BookingStatusConfirmed,
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(nil, repository.ErrNotFound)
			},
			expectedError: customError.ErrNotFound,
		},
		{
			name:      "Failure - update fails",
			requester: guest,
			status:    domain.BookingStatusConfirmed,
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
				repo.On("UpdateStatus", mock.Anything, b.ID, domain.BookingStatusCancelled).Return(nil, errors.New("deadlock"))
			},
			expectedError: customError.ErrDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := confirmedBooking("prop-1", guest.UserID, day(time.June, 1), day(time.June, 10))
			booking.Status = tt.status

			repo := new(mocks.MockBookingRepository)
			cache := new(mocks.MockCache)
			tt.setupMocks(repo, cache, booking)
			s := newTestBookingService(repo, cache)

			result, err := s.CancelBooking(context.Background(), tt.requester, booking.ID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.BookingStatusCancelled, result.Status)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestListBookedDateRanges(t *testing.T) {
	late := confirmedBooking("prop-1", "user-1", day(time.June, 20), day(time.June, 25))
	early := confirmedBooking("prop-1", "user-2", day(time.June, 1), day(time.June, 3))
	cachedRanges := []domain.DateRange{domain.NewDateRange(day(time.May, 1), day(time.May, 2))}

	tests := []struct {
		name       string
		setupMocks func(*mocks.MockBookingRepository, *mocks.MockCache)
		expected   []string
	}{
		{
			name: "cache hit skips the store",
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {
				cache.On("GetJSON", mock.Anything, "booked-gen:prop-1", mock.Anything).
					Run(func(args mock.Arguments) {
						*args.Get(2).(*int64) = 3
					}).Return(nil)
				cache.On("GetJSON", mock.Anything, "booked:prop-1:3", mock.Anything).
					Run(func(args mock.Arguments) {
						*args.Get(2).(*[]domain.DateRange) = cachedRanges
					}).Return(nil)
			},
			expected: []string{"2024-05-01..2024-05-02"},
		},
		{
			name: "cache miss reads the store and fills the cache",
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {
				cache.On("GetJSON", mock.Anything, "booked-gen:prop-1", mock.Anything).Return(repository.ErrCacheMiss)
				cache.On("GetJSON", mock.Anything, "booked:prop-1:0", mock.Anything).Return(repository.ErrCacheMiss)
				repo.On("ListByProperty", mock.Anything, "prop-1", domain.BookingStatusConfirmed).
					Return([]*domain.Booking{late, early}, nil)
				cache.On("SetJSON", mock.Anything, "booked:prop-1:0", mock.Anything, time.Minute).Return(nil)
			},
			expected: []string{"2024-06-01..2024-06-03", "2024-06-20..2024-06-25"},
		},
		{
			name: "snapshot read failure degrades to the store",
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {
				cache.On("GetJSON", mock.Anything, "booked-gen:prop-1", mock.Anything).Return(repository.ErrCacheMiss)
				cache.On("GetJSON", mock.Anything, "booked:prop-1:0", mock.Anything).Return(errors.New("circuit breaker is open"))
				repo.On("ListByProperty", mock.Anything, "prop-1", domain.BookingStatusConfirmed).
					Return([]*domain.Booking{early}, nil)
				cache.On("SetJSON", mock.Anything, "booked:prop-1:0", mock.Anything, time.Minute).Return(errors.New("circuit breaker is open"))
			},
			expected: []string{"2024-06-01..2024-06-03"},
		},
		{
			name: "unreadable generation bypasses the cache",
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache) {
				cache.On("GetJSON", mock.Anything, "booked-gen:prop-1", mock.Anything).Return(errors.New("circuit breaker is open"))
				repo.On("ListByProperty", mock.Anything, "prop-1", domain.BookingStatusConfirmed).
					Return([]*domain.Booking{early}, nil)
			},
			expected: []string{"2024-06-01..2024-06-03"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockBookingRepository)
			cache := new(mocks.MockCache)
			tt.setupMocks(repo, cache)
			s := newTestBookingService(repo, cache)

			ranges, err := s.ListBookedDateRanges(context.Background(), "prop-1")
			require.NoError(t, err)

			got := make([]string, 0, len(ranges))
			for _, r := range ranges {
				got = append(got, r.String())
			}
			assert.Equal(t, tt.expected, got)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

// mapCache is an in-process Cache that stores values as JSON like Redis does.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return repository.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *mapCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *mapCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if raw, ok := c.data[key]; ok {
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
	}
	n++
	c.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (c *mapCache) Ping(ctx context.Context) error { return nil }

// interleavingRepo runs onList once, after the first ListByProperty has read
// the store and before the caller continues.
type interleavingRepo struct {
	repository.BookingRepository
	once   sync.Once
	onList func()
}

func (r *interleavingRepo) ListByProperty(ctx context.Context, propertyID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	bookings, err := r.BookingRepository.ListByProperty(ctx, propertyID, status)
	r.once.Do(r.onList)
	return bookings, err
}

func TestListBookedDateRanges_BookingDuringCacheFillIsNotLost(t *testing.T) {
	tests := []struct {
		name   string
		seed   bool
		mutate func(t *testing.T, s *BookingService, seeded *domain.Booking)
		want   []string
	}{
		{
			name: "create commits between store read and cache write",
			mutate: func(t *testing.T, s *BookingService, _ *domain.Booking) {
				_, err := s.CreateBooking(context.Background(), guest, &domain.CreateBookingRequest{
					PropertyID: "prop-1", StartDate: day(time.June, 1), EndDate: day(time.June, 10),
				})
				require.NoError(t, err)
			},
			want: []string{"2024-06-01..2024-06-10"},
		},
		{
			name: "cancel commits between store read and cache write",
			seed: true,
			mutate: func(t *testing.T, s *BookingService, seeded *domain.Booking) {
				_, err := s.CancelBooking(context.Background(), guest, seeded.ID)
				require.NoError(t, err)
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			cache := newMapCache()
			repo := &interleavingRepo{BookingRepository: store.Bookings()}
			s := newTestBookingService(repo, cache)

			var seeded *domain.Booking
			if tt.seed {
				var err error
				seeded, err = s.CreateBooking(context.Background(), guest, &domain.CreateBookingRequest{
					PropertyID: "prop-1", StartDate: day(time.June, 1), EndDate: day(time.June, 10),
				})
				require.NoError(t, err)
			}
			repo.onList = func() { tt.mutate(t, s, seeded) }

			// This read races the mutation and may return either state.
			_, err := s.ListBookedDateRanges(context.Background(), "prop-1")
			require.NoError(t, err)

			ranges, err := s.ListBookedDateRanges(context.Background(), "prop-1")
			require.NoError(t, err)
			got := make([]string, 0, len(ranges))
			for _, r := range ranges {
				got = append(got, r.String())
			}
			assert.Equal(t, tt.want, got)

			available, err := s.CheckAvailability(context.Background(), "prop-1",
				domain.NewDateRange(day(time.June, 5), day(time.June, 6)))
			require.NoError(t, err)
			assert.Equal(t, len(tt.want) == 0, available)
		})
	}
}

func TestListUserBookings(t *testing.T) {
	repo := new(mocks.MockBookingRepository)
	bookings := []*domain.Booking{confirmedBooking("prop-1", guest.UserID, day(time.June, 1), day(time.June, 2))}
	repo.On("List", mock.Anything, domain.BookingFilter{UserID: guest.UserID, Status: domain.BookingStatusConfirmed}).Return(bookings, nil)
	s := newTestBookingService(repo, new(mocks.MockCache))

	result, err := s.ListUserBookings(context.Background(), guest, domain.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, bookings, result)

	_, err = s.ListUserBookings(context.Background(), guest, "PENDING")
	assert.ErrorIs(t, err, customError.ErrValidation)

	_, err = s.ListUserBookings(context.Background(), domain.Requester{}, "")
	assert.ErrorIs(t, err, customError.ErrUnauthenticated)

	repo.AssertExpectations(t)
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	repo := new(mocks.MockBookingRepository)
	s := newTestBookingService(repo, new(mocks.MockCache))
	ctx := context.Background()
	id := uuid.New()

	_, err := s.ListBookings(ctx, guest, domain.BookingFilter{})
	assert.ErrorIs(t, err, customError.ErrForbidden)

	_, err = s.UpdateStatus(ctx, guest, id, domain.BookingStatusCancelled)
	assert.ErrorIs(t, err, customError.ErrForbidden)

	_, err = s.Reschedule(ctx, guest, id, domain.NewDateRange(day(time.June, 1), day(time.June, 2)))
	assert.ErrorIs(t, err, customError.ErrForbidden)

	err = s.DeleteBooking(ctx, guest, id)
	assert.ErrorIs(t, err, customError.ErrForbidden)

	err = s.DeleteBooking(ctx, domain.Requester{}, id)
	assert.ErrorIs(t, err, customError.ErrUnauthenticated)

	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name          string
		current       domain.BookingStatus
		target        domain.BookingStatus
		setupMocks    func(*mocks.MockBookingRepository, *mocks.MockCache, *domain.Booking)
		expectedError error
	}{
		{
			name:    "confirmed to cancelled",
			current: domain.BookingStatusConfirmed,
			target:  domain.BookingStatusCancelled,
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
				updated := *b
				updated.Status = domain.BookingStatusCancelled
				repo.On("UpdateStatus", mock.Anything, b.ID, domain.BookingStatusCancelled).Return(&updated, nil)
				cache.On("Incr", mock.Anything, "booked-gen:prop-1").Return(int64(1), nil)
			},
		},
		{
			name:    "same status is a no-op",
			current: domain.BookingStatusConfirmed,
			target:  domain.BookingStatusConfirmed,
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
			},
		},
		{
			name:    "cancelled cannot be revived",
			current: domain.BookingStatusCancelled,
			target:  domain.BookingStatusConfirmed,
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
			},
			expectedError: customError.ErrValidation,
		},
		{
			name:          "unknown status",
			current:       domain.BookingStatusConfirmed,
			target:        "ARCHIVED",
			setupMocks:    func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {},
			expectedError: customError.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := confirmedBooking("prop-1", guest.UserID, day(time.June, 1), day(time.June, 10))
			booking.Status = tt.current

			repo := new(mocks.MockBookingRepository)
			cache := new(mocks.MockCache)
			tt.setupMocks(repo, cache, booking)
			s := newTestBookingService(repo, cache)

			result, err := s.UpdateStatus(context.Background(), admin, booking.ID, tt.target)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.target, result.Status)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestReschedule(t *testing.T) {
	neighbour := confirmedBooking("prop-1", "user-9", day(time.June, 20), day(time.June, 25))

	tests := []struct {
		name          string
		status        domain.BookingStatus
		dates         domain.DateRange
		setupMocks    func(*mocks.MockBookingRepository, *mocks.MockCache, *domain.Booking)
		expectedError error
	}{
		{
			name:   "overlapping only itself is allowed",
			status: domain.BookingStatusConfirmed,
			dates:  domain.NewDateRange(day(time.June, 5), day(time.June, 12)),
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
				moved := *b
				moved.StartDate, moved.EndDate = day(time.June, 5), day(time.June, 12)
				repo.On("RescheduleExclusive", mock.Anything, b.ID, domain.NewDateRange(day(time.June, 5), day(time.June, 12))).
					Return([]*domain.Booking{b, neighbour}, &moved, nil)
				cache.On("Incr", mock.Anything, "booked-gen:prop-1").Return(int64(1), nil)
			},
		},
		{
			name:   "touching a neighbour conflicts",
			status: domain.BookingStatusConfirmed,
			dates:  domain.NewDateRange(day(time.June, 15), day(time.June, 20)),
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
				repo.On("RescheduleExclusive", mock.Anything, b.ID, mock.Anything).
					Return([]*domain.Booking{b, neighbour}, nil, nil)
			},
			expectedError: customError.ErrBookingConflict,
		},
		{
			name:   "cancelled bookings cannot move",
			status: domain.BookingStatusCancelled,
			dates:  domain.NewDateRange(day(time.June, 5), day(time.June, 12)),
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
			},
			expectedError: customError.ErrValidation,
		},
		{
			name:   "inverted range",
			status: domain.BookingStatusConfirmed,
			dates:  domain.NewDateRange(day(time.June, 12), day(time.June, 5)),
			setupMocks: func(repo *mocks.MockBookingRepository, cache *mocks.MockCache, b *domain.Booking) {
				repo.On("GetByID", mock.Anything, b.ID).Return(b, nil)
			},
			expectedError: customError.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := confirmedBooking("prop-1", guest.UserID, day(time.June, 1), day(time.June, 10))
			booking.Status = tt.status

			repo := new(mocks.MockBookingRepository)
			cache := new(mocks.MockCache)
			tt.setupMocks(repo, cache, booking)
			s := newTestBookingService(repo, cache)

			result, err := s.Reschedule(context.Background(), admin, booking.ID, tt.dates)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.dates.Start, result.StartDate)
				assert.Equal(t, tt.dates.End, result.EndDate)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestDeleteBooking(t *testing.T) {
	booking := confirmedBooking("prop-1", guest.UserID, day(time.June, 1), day(time.June, 10))

	repo := new(mocks.MockBookingRepository)
	cache := new(mocks.MockCache)
	repo.On("GetByID", mock.Anything, booking.ID).Return(booking, nil)
	repo.On("Delete", mock.Anything, booking.ID).Return(nil)
	cache.On("Incr", mock.Anything, "booked-gen:prop-1").Return(int64(1), nil)
	s := newTestBookingService(repo, cache)

	require.NoError(t, s.DeleteBooking(context.Background(), admin, booking.ID))

	missing := uuid.New()
	repo.On("GetByID", mock.Anything, missing).Return(nil, repository.ErrNotFound)
	err := s.DeleteBooking(context.Background(), admin, missing)
	assert.ErrorIs(t, err, customError.ErrNotFound)
	assert.Equal(t, customError.ErrCodeBookingNotFound, customError.CodeOf(err))

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}
