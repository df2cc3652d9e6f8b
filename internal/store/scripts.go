// Copyright 2025 James Ross
package store

import "github.com/redis/go-redis/v9"

// Lua scripts, one round trip each, so every primitive stays atomic under
// concurrent access from multiple API/worker processes sharing one Redis.

var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local request_id = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, request_id)
    redis.call('EXPIRE', key, window * 2)
    return {1, limit - count - 1, math.floor(now + window)}
else
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local reset_at = now + window
    if oldest and #oldest >= 2 then
        reset_at = tonumber(oldest[2]) + window
    end
    return {0, 0, math.floor(reset_at)}
end
`)

var queueEnqueueScript = redis.NewScript(`
local key = KEYS[1]
local job_id = ARGV[1]
local score = tonumber(ARGV[2])

redis.call('ZADD', key, score, job_id)
local position = redis.call('ZRANK', key, job_id)
return position + 1
`)

var queueDequeueScript = redis.NewScript(`
local key = KEYS[1]
local items = redis.call('ZRANGE', key, 0, 0)
if #items == 0 then
    return nil
end
local job_id = items[1]
redis.call('ZREM', key, job_id)
return job_id
`)

var queuePositionScript = redis.NewScript(`
local key = KEYS[1]
local job_id = ARGV[1]
local position = redis.call('ZRANK', key, job_id)
if position == false then
    return -1
end
return position + 1
`)

var usageIncrementScript = redis.NewScript(`
local daily_key = KEYS[1]
local monthly_key = KEYS[2]
local amount = tonumber(ARGV[1])

local daily = redis.call('INCRBY', daily_key, amount)
local monthly = redis.call('INCRBY', monthly_key, amount)

redis.call('EXPIRE', daily_key, 90000)
redis.call('EXPIRE', monthly_key, 2764800)

return {daily, monthly}
`)
